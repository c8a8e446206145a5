package club

import "context"

// ClubStore defines the interface for interacting with the club roster.
type ClubStore interface {
	CreatePlayer(ctx context.Context, player PlayerInfo) (PlayerInfo, error)
	UpdatePlayer(ctx context.Context, playerID string, patch PlayerPatch) (PlayerInfo, error)
	GetPlayer(ctx context.Context, playerID string) (PlayerInfo, error)
	GetPlayers(ctx context.Context, playerIDs []string) ([]PlayerInfo, error)
	ListPlayers(ctx context.Context, filter PlayerFilter) ([]PlayerInfo, error)
	IsKnownPlayer(ctx context.Context, playerID string) bool

	CreateCourt(ctx context.Context, idx int) (Court, error)
	ListCourts(ctx context.Context) ([]Court, error)
	GetCourtByIdx(ctx context.Context, idx int) (Court, error)
}

package planner_test

import (
	"testing"

	"github.com/mauv0809/crispy-shuttle/internal/club"
	"github.com/mauv0809/crispy-shuttle/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entrant(id string, level float64, category club.Category) planner.Entrant {
	return planner.Entrant{
		ID:              id,
		Category:        category,
		Level:           level,
		HasLevel:        true,
		SinglesLevel:    level,
		HasSinglesLevel: true,
	}
}

func teamTotals(m planner.PlannedMatch, levels map[string]float64) (float64, float64) {
	var t1, t2 float64
	for _, seat := range m.Seats {
		if seat.Slot <= 1 {
			t1 += levels[seat.Player]
		} else {
			t2 += levels[seat.Player]
		}
	}
	return t1, t2
}

func TestBuildRound_BasicDoublesFill(t *testing.T) {
	levels := map[string]float64{"A": 10, "B": 20, "C": 30, "D": 40, "E": 50, "F": 60, "G": 70, "H": 80}
	var entrants []planner.Entrant
	for _, id := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		entrants = append(entrants, entrant(id, levels[id], club.CategoryEither))
	}

	plan := planner.BuildRound(entrants, []int{1, 2}, 1, planner.NewHistory())

	require.Len(t, plan.Matches, 2)
	assert.Empty(t, plan.Benched)
	for _, m := range plan.Matches {
		assert.Equal(t, club.MatchTypeDoubles, m.Type)
		require.Len(t, m.Seats, 4)
		t1, t2 := teamTotals(m, levels)
		gap := t1 - t2
		if gap < 0 {
			gap = -gap
		}
		assert.LessOrEqual(t, gap, 20.0, "team totals should be balanced")
	}
}

func TestBuildRound_OddPlayerCount(t *testing.T) {
	var entrants []planner.Entrant
	for i, id := range []string{"A", "B", "C", "D", "E"} {
		entrants = append(entrants, entrant(id, float64((i+1)*10), club.CategoryEither))
	}

	plan := planner.BuildRound(entrants, []int{1, 2, 3}, 1, planner.NewHistory())

	require.Len(t, plan.Matches, 1)
	assert.Equal(t, club.MatchTypeDoubles, plan.Matches[0].Type)
	assert.Equal(t, []string{"E"}, plan.Benched)

	// Deterministic split: A,D vs B,C balances the team totals exactly.
	teams := map[string]string{}
	for _, seat := range plan.Matches[0].Seats {
		if seat.Slot <= 1 {
			teams[seat.Player] = "t1"
		} else {
			teams[seat.Player] = "t2"
		}
	}
	assert.Equal(t, teams["A"], teams["D"])
	assert.Equal(t, teams["B"], teams["C"])
	assert.NotEqual(t, teams["A"], teams["B"])
}

func TestBuildRound_DoublesOnlyPlayerMustPlay(t *testing.T) {
	entrants := []planner.Entrant{
		entrant("X", 50, club.CategoryDoublesOnly),
		entrant("A", 50, club.CategoryEither),
		entrant("B", 50, club.CategoryEither),
		entrant("C", 50, club.CategoryEither),
		entrant("D", 50, club.CategoryEither),
	}

	plan := planner.BuildRound(entrants, []int{1, 2}, 1, planner.NewHistory())

	require.Len(t, plan.Matches, 1)
	assert.Equal(t, club.MatchTypeDoubles, plan.Matches[0].Type)

	placed := map[string]bool{}
	for _, seat := range plan.Matches[0].Seats {
		placed[seat.Player] = true
	}
	assert.True(t, placed["X"], "doubles-only player must be in the doubles match")
	assert.Len(t, plan.Benched, 1)
	assert.NotContains(t, plan.Benched, "X")
}

func TestBuildRound_RoundTwoVariety(t *testing.T) {
	entrants := []planner.Entrant{
		entrant("A", 50, club.CategoryEither),
		entrant("B", 50, club.CategoryEither),
		entrant("C", 50, club.CategoryEither),
		entrant("D", 50, club.CategoryEither),
	}

	hist := planner.NewHistory()
	// Round 1 paired A+B vs C+D.
	hist.AddMatch(map[int]string{0: "A", 1: "B", 2: "C", 3: "D"})

	plan := planner.BuildRound(entrants, []int{1}, 2, hist)

	require.Len(t, plan.Matches, 1)
	teams := map[string]int{}
	for _, seat := range plan.Matches[0].Seats {
		if seat.Slot <= 1 {
			teams[seat.Player] = 1
		} else {
			teams[seat.Player] = 2
		}
	}
	assert.NotEqual(t, teams["A"], teams["B"], "repeat partners should be split up")
	assert.NotEqual(t, teams["C"], teams["D"], "repeat partners should be split up")
}

func TestBuildRound_SinglesForLeftovers(t *testing.T) {
	entrants := []planner.Entrant{
		entrant("A", 10, club.CategoryEither),
		entrant("B", 20, club.CategoryEither),
	}

	plan := planner.BuildRound(entrants, []int{1, 2}, 1, planner.NewHistory())

	require.Len(t, plan.Matches, 1)
	m := plan.Matches[0]
	assert.Equal(t, club.MatchTypeSingles, m.Type)
	require.Len(t, m.Seats, 2)
	// Singles use slots 1 and 2; slot 0 stays empty.
	assert.Equal(t, 1, m.Seats[0].Slot)
	assert.Equal(t, 2, m.Seats[1].Slot)
	assert.Empty(t, plan.Benched)
}

func TestBuildRound_DoublesOnlyNeverInSingles(t *testing.T) {
	entrants := []planner.Entrant{
		entrant("X", 50, club.CategoryDoublesOnly),
		entrant("A", 50, club.CategoryEither),
		entrant("B", 50, club.CategoryEither),
	}

	plan := planner.BuildRound(entrants, []int{1, 2}, 1, planner.NewHistory())

	require.Len(t, plan.Matches, 1)
	assert.Equal(t, club.MatchTypeSingles, plan.Matches[0].Type)
	for _, seat := range plan.Matches[0].Seats {
		assert.NotEqual(t, "X", seat.Player)
	}
	assert.Equal(t, []string{"X"}, plan.Benched)
}

func TestBuildRound_SinglesOnlyNeverCoOptedWithoutNeed(t *testing.T) {
	entrants := []planner.Entrant{
		entrant("S1", 30, club.CategorySinglesOnly),
		entrant("S2", 40, club.CategorySinglesOnly),
		entrant("S3", 50, club.CategorySinglesOnly),
		entrant("S4", 60, club.CategorySinglesOnly),
	}

	plan := planner.BuildRound(entrants, []int{1, 2}, 1, planner.NewHistory())

	require.Len(t, plan.Matches, 2)
	for _, m := range plan.Matches {
		assert.Equal(t, club.MatchTypeSingles, m.Type)
		assert.Len(t, m.Seats, 2)
	}
	assert.Empty(t, plan.Benched)
}

func TestBuildRound_SinglesOnlyLeftToSinglesCourt(t *testing.T) {
	entrants := []planner.Entrant{
		entrant("A", 10, club.CategoryEither),
		entrant("B", 20, club.CategoryEither),
		entrant("C", 30, club.CategoryEither),
		entrant("D", 40, club.CategoryEither),
		entrant("S1", 50, club.CategorySinglesOnly),
		entrant("S2", 60, club.CategorySinglesOnly),
	}

	plan := planner.BuildRound(entrants, []int{1, 2}, 1, planner.NewHistory())

	require.Len(t, plan.Matches, 2)
	assert.Equal(t, club.MatchTypeDoubles, plan.Matches[0].Type)
	assert.Equal(t, club.MatchTypeSingles, plan.Matches[1].Type)
	for _, seat := range plan.Matches[0].Seats {
		assert.NotContains(t, []string{"S1", "S2"}, seat.Player)
	}
	assert.Empty(t, plan.Benched)
}

func TestBuildRound_SinglesOnlyCoOptedToSaveDoublesOnly(t *testing.T) {
	entrants := []planner.Entrant{
		entrant("X", 50, club.CategoryDoublesOnly),
		entrant("A", 50, club.CategoryEither),
		entrant("S1", 50, club.CategorySinglesOnly),
		entrant("S2", 50, club.CategorySinglesOnly),
	}

	plan := planner.BuildRound(entrants, []int{1}, 1, planner.NewHistory())

	require.Len(t, plan.Matches, 1)
	assert.Equal(t, club.MatchTypeDoubles, plan.Matches[0].Type)
	placed := map[string]bool{}
	for _, seat := range plan.Matches[0].Seats {
		placed[seat.Player] = true
	}
	assert.True(t, placed["X"], "doubles-only player must not be benched while fillers exist")
	assert.Empty(t, plan.Benched)
}

func TestBuildRound_NoCourts(t *testing.T) {
	entrants := []planner.Entrant{
		entrant("A", 10, club.CategoryEither),
		entrant("B", 20, club.CategoryEither),
	}

	plan := planner.BuildRound(entrants, nil, 1, planner.NewHistory())

	assert.Empty(t, plan.Matches)
	assert.Equal(t, []string{"A", "B"}, plan.Benched)
}

func TestBuildRound_EmptyLedger(t *testing.T) {
	plan := planner.BuildRound(nil, []int{1, 2}, 1, planner.NewHistory())
	assert.Empty(t, plan.Matches)
	assert.Empty(t, plan.Benched)
}

func TestBuildRound_Deterministic(t *testing.T) {
	var entrants []planner.Entrant
	for i, id := range []string{"G", "C", "A", "E", "B", "F", "D"} {
		entrants = append(entrants, entrant(id, float64(10+i*7), club.CategoryEither))
	}

	first := planner.BuildRound(entrants, []int{2, 1}, 1, planner.NewHistory())

	// Shuffle the input order; output must not change.
	reversed := make([]planner.Entrant, 0, len(entrants))
	for i := len(entrants) - 1; i >= 0; i-- {
		reversed = append(reversed, entrants[i])
	}
	second := planner.BuildRound(reversed, []int{1, 2}, 1, planner.NewHistory())

	assert.Equal(t, first, second)
}

func TestBuildRound_InconsistentHistoryDegrades(t *testing.T) {
	entrants := []planner.Entrant{
		entrant("A", 50, club.CategoryEither),
		entrant("B", 50, club.CategoryEither),
		entrant("C", 50, club.CategoryEither),
		entrant("D", 50, club.CategoryEither),
	}

	hist := planner.NewHistory()
	hist.AddMatch(map[int]string{0: "A", 1: "B", 2: "C"}) // 3 slots, invalid

	plan := planner.BuildRound(entrants, []int{1}, 2, hist)

	// The round still gets planned, just without repeat penalties.
	require.Len(t, plan.Matches, 1)
	assert.Len(t, plan.Matches[0].Seats, 4)
	assert.Empty(t, plan.Benched)
}

func TestBuildRound_FairnessPrefersFewerMatches(t *testing.T) {
	rested := entrant("Z", 80, club.CategoryEither)
	rested.Played = 0
	var entrants []planner.Entrant
	for _, id := range []string{"A", "B", "C", "D"} {
		e := entrant(id, 50, club.CategoryEither)
		e.Played = 1
		entrants = append(entrants, e)
	}
	entrants = append(entrants, rested)

	plan := planner.BuildRound(entrants, []int{1}, 2, planner.NewHistory())

	require.Len(t, plan.Matches, 1)
	placed := map[string]bool{}
	for _, seat := range plan.Matches[0].Seats {
		placed[seat.Player] = true
	}
	assert.True(t, placed["Z"], "the player with fewer matches should be scheduled first")
	assert.Len(t, plan.Benched, 1)
}

package main

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN", "TENANT_ID"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()
	tenantID := cfg["TENANT_ID"]

	// Connect directly to the primary database
	dbURL := fmt.Sprintf("%s?authToken=%s", cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		log.Fatalf("Failed to open primary database: %s", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to primary database: %s", err)
	}

	log.Info("Successfully connected to the primary database.")

	names := []string{
		"Anna Holm", "Bo Jensen", "Carla Madsen", "Dan Larsen",
		"Eva Sørensen", "Finn Nielsen", "Grete Olsen", "Hans Poulsen",
		"Ida Kristensen", "Jonas Berg", "Karen Lund", "Lars Vestergaard",
		"Mette Dahl", "Niels Bak", "Oda Friis", "Per Mortensen",
	}

	now := time.Now().Unix()
	playerIDs := make([]string, 0, len(names))
	for i, name := range names {
		id := uuid.NewString()
		level := 300.0 + float64(rand.Intn(400))
		category := "either"
		if i%8 == 7 {
			category = "doubles_only"
		}
		_, err := db.Exec(`INSERT OR IGNORE INTO players
			(id, tenant_id, name, level_double, category, active, created_at)
			VALUES (?, ?, ?, ?, ?, 1, ?)`,
			id, tenantID, name, level, category, now)
		if err != nil {
			log.Fatalf("Failed to insert player %s: %s", name, err)
		}
		playerIDs = append(playerIDs, id)
	}
	log.Info("Ensured dummy players exist.", "count", len(playerIDs))

	courtIDs := make([]string, 0, 4)
	for idx := 1; idx <= 4; idx++ {
		id := uuid.NewString()
		_, err := db.Exec(`INSERT OR IGNORE INTO courts (id, tenant_id, idx) VALUES (?, ?, ?)`,
			id, tenantID, idx)
		if err != nil {
			log.Fatalf("Failed to insert court %d: %s", idx, err)
		}
		courtIDs = append(courtIDs, id)
	}
	log.Info("Ensured courts exist.", "count", len(courtIDs))

	// One ended historical session with a few rounds of doubles, so the
	// planner has repeat history and the snapshot endpoints have data.
	sessionID := uuid.NewString()
	sessionDate := time.Now().AddDate(0, 0, -7).Unix()
	_, err = db.Exec(`INSERT INTO training_sessions (id, tenant_id, date, status, created_at)
		VALUES (?, ?, ?, 'ended', ?)`, sessionID, tenantID, sessionDate, sessionDate)
	if err != nil {
		log.Fatalf("Failed to insert session: %s", err)
	}

	for _, playerID := range playerIDs {
		_, err := db.Exec(`INSERT INTO check_ins (id, tenant_id, session_id, player_id, created_at)
			VALUES (?, ?, ?, ?, ?)`, uuid.NewString(), tenantID, sessionID, playerID, sessionDate)
		if err != nil {
			log.Fatalf("Failed to insert check-in: %s", err)
		}
	}

	const rounds = 3
	startTime := time.Now()

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %s", err)
	}

	matchValues := make([]string, 0)
	matchArgs := make([]interface{}, 0)
	slotValues := make([]string, 0)
	slotArgs := make([]interface{}, 0)

	for round := 1; round <= rounds; round++ {
		shuffled := make([]string, len(playerIDs))
		copy(shuffled, playerIDs)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		for court := 0; court < len(courtIDs) && (court+1)*4 <= len(shuffled); court++ {
			matchID := uuid.NewString()
			started := sessionDate + int64((round-1)*25*60)
			ended := started + 20*60

			matchValues = append(matchValues, "(?, ?, ?, ?, ?, ?, ?)")
			matchArgs = append(matchArgs, matchID, tenantID, sessionID, courtIDs[court], round, started, ended)

			for slot := 0; slot < 4; slot++ {
				slotValues = append(slotValues, "(?, ?, ?, ?, ?)")
				slotArgs = append(slotArgs, uuid.NewString(), tenantID, matchID, shuffled[court*4+slot], slot)
			}
		}
	}

	matchStmt := fmt.Sprintf(`INSERT INTO matches (id, tenant_id, session_id, court_id, round, started_at, ended_at)
		VALUES %s;`, strings.Join(matchValues, ","))
	if _, err := tx.Exec(matchStmt, matchArgs...); err != nil {
		tx.Rollback()
		log.Fatalf("Failed to insert matches: %s", err)
	}

	slotStmt := fmt.Sprintf(`INSERT INTO match_players (id, tenant_id, match_id, player_id, slot)
		VALUES %s;`, strings.Join(slotValues, ","))
	if _, err := tx.Exec(slotStmt, slotArgs...); err != nil {
		tx.Rollback()
		log.Fatalf("Failed to insert match players: %s", err)
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %s", err)
	}

	duration := time.Since(startTime)
	log.Info("Successfully seeded historical session.", "rounds", rounds, "duration", duration)
}

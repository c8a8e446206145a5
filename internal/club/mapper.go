package club

import (
	"database/sql"
	"encoding/json"

	"github.com/charmbracelet/log"
)

const playerColumns = `id, name, alias, level_single, level_double, level_mix, gender, category, active, training_groups, preferred_doubles, preferred_mixed, created_at`

// scanPlayer maps a player row to a PlayerInfo. Every nullable column is
// mapped to an explicit pointer field; a missing rating stays nil rather
// than collapsing to 0.
func scanPlayer(scanner interface{ Scan(...any) error }) (PlayerInfo, error) {
	var p PlayerInfo
	var alias, gender sql.NullString
	var levelSingle, levelDouble, levelMix sql.NullFloat64
	var category string
	var active int
	var groupsJSON, doublesJSON, mixedJSON sql.NullString

	err := scanner.Scan(
		&p.ID, &p.Name, &alias, &levelSingle, &levelDouble, &levelMix,
		&gender, &category, &active, &groupsJSON, &doublesJSON, &mixedJSON,
		&p.CreatedAt,
	)
	if err != nil {
		return PlayerInfo{}, err
	}

	if alias.Valid {
		p.Alias = &alias.String
	}
	if gender.Valid {
		p.Gender = &gender.String
	}
	if levelSingle.Valid {
		p.LevelSingle = &levelSingle.Float64
	}
	if levelDouble.Valid {
		p.LevelDouble = &levelDouble.Float64
	}
	if levelMix.Valid {
		p.LevelMix = &levelMix.Float64
	}
	p.Category = Category(category)
	p.Active = active != 0
	p.TrainingGroups = decodeStringList(groupsJSON, p.ID, "training_groups")
	p.PreferredDoubles = decodeStringList(doublesJSON, p.ID, "preferred_doubles")
	p.PreferredMixed = decodeStringList(mixedJSON, p.ID, "preferred_mixed")
	return p, nil
}

func decodeStringList(col sql.NullString, playerID, field string) []string {
	if !col.Valid || col.String == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(col.String), &list); err != nil {
		log.Error("Failed to unmarshal player list column", "error", err, "playerID", playerID, "field", field)
		return nil
	}
	return list
}

func encodeStringList(list []string) any {
	if len(list) == 0 {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		log.Error("Failed to marshal player list column", "error", err)
		return nil
	}
	return string(data)
}

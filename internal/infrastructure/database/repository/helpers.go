package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"dhankavach/internal/domain/models"
)

// Time conversion helpers. SQLite keeps timestamps as sortable UTC text.

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// Notes are a JSON array in SQLite and TEXT[] in PostgreSQL

func encodeNotes(notes []string) (string, error) {
	if notes == nil {
		notes = []string{}
	}
	b, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("failed to encode notes: %w", err)
	}
	return string(b), nil
}

func decodeNotes(s string) ([]string, error) {
	notes := []string{}
	if s == "" {
		return notes, nil
	}
	if err := json.Unmarshal([]byte(s), &notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	return notes, nil
}

// Lookup helpers

func uniqueIDs(ids []string) []string {
	var out []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// orderByIDs returns found in the order of ids so every backend answers alike
func orderByIDs(found []models.FlaggedEntity, ids []string) []models.FlaggedEntity {
	byID := make(map[string]models.FlaggedEntity, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	out := make([]models.FlaggedEntity, 0, len(found))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

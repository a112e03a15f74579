package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/internal/infrastructure/database"
)

// SQLiteProfiles is the durable local risk profile store
type SQLiteProfiles struct {
	db *database.SQLiteDB
}

var _ riskprofile.Store = (*SQLiteProfiles)(nil)

// NewSQLiteProfiles creates the store on an opened database
func NewSQLiteProfiles(db *database.SQLiteDB) *SQLiteProfiles {
	return &SQLiteProfiles{db: db}
}

const sqliteEntityColumns = `entity_id, kind, risk_score, source, source_ref, first_seen, last_seen, notes`

// Put reads, merges and writes inside one transaction. The database has a
// single connection, so concurrent Puts cannot interleave.
func (r *SQLiteProfiles) Put(ctx context.Context, profileID string, entity models.FlaggedEntity) (models.FlaggedEntity, error) {
	var stored models.FlaggedEntity

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+sqliteEntityColumns+` FROM flagged_entities WHERE profile_id = ? AND entity_id = ?`,
			profileID, entity.ID)

		existing, err := scanSQLiteEntity(row)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			stored = entity
		case err != nil:
			return err
		default:
			stored = existing.Merge(entity)
		}
		if stored.Notes == nil {
			stored.Notes = []string{}
		}

		notes, err := encodeNotes(stored.Notes)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO flagged_entities (profile_id, `+sqliteEntityColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (profile_id, entity_id) DO UPDATE SET
				risk_score = excluded.risk_score,
				first_seen = excluded.first_seen,
				last_seen  = excluded.last_seen,
				notes      = excluded.notes`,
			profileID, stored.ID, string(stored.Kind), stored.RiskScore, string(stored.Source), stored.SourceRef,
			formatTime(stored.FirstSeen), formatTime(stored.LastSeen), notes)
		if err != nil {
			return fmt.Errorf("failed to upsert flagged entity: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.FlaggedEntity{}, fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}
	return stored, nil
}

// Lookup returns exact id matches in the order ids were given
func (r *SQLiteProfiles) Lookup(ctx context.Context, profileID string, ids []string) ([]models.FlaggedEntity, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, profileID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+sqliteEntityColumns+` FROM flagged_entities WHERE profile_id = ? AND entity_id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up entities: %w", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	found, err := collectSQLiteEntities(rows)
	if err != nil {
		return nil, err
	}
	return orderByIDs(found, ids), nil
}

// List returns the profile's entities in first-seen order
func (r *SQLiteProfiles) List(ctx context.Context, profileID string) ([]models.FlaggedEntity, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+sqliteEntityColumns+` FROM flagged_entities WHERE profile_id = ? ORDER BY first_seen, rowid`,
		profileID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list entities: %w", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return collectSQLiteEntities(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntity(row rowScanner) (models.FlaggedEntity, error) {
	var (
		e                   models.FlaggedEntity
		kind, source, notes string
		firstSeen, lastSeen string
	)
	if err := row.Scan(&e.ID, &kind, &e.RiskScore, &source, &e.SourceRef, &firstSeen, &lastSeen, &notes); err != nil {
		return models.FlaggedEntity{}, err
	}
	e.Kind = models.EntityKind(kind)
	e.Source = models.EntitySource(source)

	var err error
	if e.FirstSeen, err = parseTime(firstSeen); err != nil {
		return models.FlaggedEntity{}, err
	}
	if e.LastSeen, err = parseTime(lastSeen); err != nil {
		return models.FlaggedEntity{}, err
	}
	if e.Notes, err = decodeNotes(notes); err != nil {
		return models.FlaggedEntity{}, err
	}
	return e, nil
}

func collectSQLiteEntities(rows *sql.Rows) ([]models.FlaggedEntity, error) {
	var out []models.FlaggedEntity
	for rows.Next() {
		e, err := scanSQLiteEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flagged entity: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}
	return out, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/riskprofile"
	"dhankavach/internal/infrastructure/database"
)

// PostgresProfiles stores risk profiles in PostgreSQL
type PostgresProfiles struct {
	db database.DBTX
}

var _ riskprofile.Store = (*PostgresProfiles)(nil)

// NewPostgresProfiles creates the store on a pool or transaction
func NewPostgresProfiles(db database.DBTX) *PostgresProfiles {
	return &PostgresProfiles{db: db}
}

const pgEntityColumns = `entity_id, kind, risk_score, source, source_ref, first_seen, last_seen, notes`

// Put merges in a single statement; the row lock taken by ON CONFLICT keeps
// concurrent writers from losing each other's notes.
func (r *PostgresProfiles) Put(ctx context.Context, profileID string, entity models.FlaggedEntity) (models.FlaggedEntity, error) {
	notes := entity.Notes
	if notes == nil {
		notes = []string{}
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO flagged_entities (profile_id, `+pgEntityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (profile_id, entity_id) DO UPDATE SET
			risk_score = GREATEST(flagged_entities.risk_score, excluded.risk_score),
			first_seen = LEAST(flagged_entities.first_seen, excluded.first_seen),
			last_seen  = GREATEST(flagged_entities.last_seen, excluded.last_seen),
			notes      = flagged_entities.notes || excluded.notes
		RETURNING `+pgEntityColumns,
		profileID, entity.ID, string(entity.Kind), entity.RiskScore, string(entity.Source), entity.SourceRef,
		entity.FirstSeen, entity.LastSeen, notes)

	stored, err := scanPgEntity(row)
	if err != nil {
		return models.FlaggedEntity{}, fmt.Errorf("%w: failed to upsert flagged entity: %w", models.ErrStoreUnavailable, err)
	}
	return stored, nil
}

// Lookup returns exact id matches in the order ids were given
func (r *PostgresProfiles) Lookup(ctx context.Context, profileID string, ids []string) ([]models.FlaggedEntity, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+pgEntityColumns+` FROM flagged_entities WHERE profile_id = $1 AND entity_id = ANY($2)`,
		profileID, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up entities: %w", models.ErrStoreUnavailable, err)
	}

	found, err := collectPgEntities(rows)
	if err != nil {
		return nil, err
	}
	return orderByIDs(found, ids), nil
}

// List returns the profile's entities in first-seen order
func (r *PostgresProfiles) List(ctx context.Context, profileID string) ([]models.FlaggedEntity, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+pgEntityColumns+` FROM flagged_entities WHERE profile_id = $1 ORDER BY first_seen, seq`,
		profileID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list entities: %w", models.ErrStoreUnavailable, err)
	}
	return collectPgEntities(rows)
}

func scanPgEntity(row pgx.Row) (models.FlaggedEntity, error) {
	var (
		e                   models.FlaggedEntity
		kind, source        string
		firstSeen, lastSeen time.Time
	)
	if err := row.Scan(&e.ID, &kind, &e.RiskScore, &source, &e.SourceRef, &firstSeen, &lastSeen, &e.Notes); err != nil {
		return models.FlaggedEntity{}, err
	}
	e.Kind = models.EntityKind(kind)
	e.Source = models.EntitySource(source)
	e.FirstSeen = firstSeen.UTC()
	e.LastSeen = lastSeen.UTC()
	if e.Notes == nil {
		e.Notes = []string{}
	}
	return e, nil
}

func collectPgEntities(rows pgx.Rows) ([]models.FlaggedEntity, error) {
	defer rows.Close()

	var out []models.FlaggedEntity
	for rows.Next() {
		e, err := scanPgEntity(rows)
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

package riskprofile

import (
	"context"
	"fmt"
	"time"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/extract"
)

// Store persists flagged entities per profile. Implementations must make Put a
// merge (max score, appended notes) that never loses a concurrent update, and
// must never expose a half-merged entity to Lookup.
type Store interface {
	Put(ctx context.Context, profileID string, entity models.FlaggedEntity) (models.FlaggedEntity, error)
	Lookup(ctx context.Context, profileID string, ids []string) ([]models.FlaggedEntity, error)
	List(ctx context.Context, profileID string) ([]models.FlaggedEntity, error)
}

// Reader is the read-only view of one profile handed to scorers
type Reader interface {
	ID() string
	Lookup(ctx context.Context, ids []string) ([]models.FlaggedEntity, error)
	List(ctx context.Context) ([]models.FlaggedEntity, error)
}

// Profile binds a store to a single user or household
type Profile struct {
	id    string
	store Store
}

// Open returns the handle for profileID. Opening is free; nothing is read until used.
func Open(store Store, profileID string) *Profile {
	return &Profile{id: profileID, store: store}
}

// ID returns the profile id
func (p *Profile) ID() string {
	return p.id
}

// Put normalizes and merges a flagged entity into the profile
func (p *Profile) Put(ctx context.Context, entity models.FlaggedEntity) (models.FlaggedEntity, error) {
	prepared, err := Prepare(entity, time.Now().UTC())
	if err != nil {
		return models.FlaggedEntity{}, err
	}
	return p.store.Put(ctx, p.id, prepared)
}

// Lookup returns the stored entities whose id exactly matches one of ids
func (p *Profile) Lookup(ctx context.Context, ids []string) ([]models.FlaggedEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return p.store.Lookup(ctx, p.id, ids)
}

// List returns every entity in the profile in first-seen order
func (p *Profile) List(ctx context.Context) ([]models.FlaggedEntity, error) {
	return p.store.List(ctx, p.id)
}

// Prepare validates an entity before it reaches a backend: the id is normalized
// for its kind, the score clamped and the timestamps filled in.
func Prepare(entity models.FlaggedEntity, now time.Time) (models.FlaggedEntity, error) {
	switch entity.Kind {
	case models.EntityKindPhone, models.EntityKindUPI, models.EntityKindURL,
		models.EntityKindBankName, models.EntityKindDocHash, models.EntityKindKeyword:
	default:
		return models.FlaggedEntity{}, fmt.Errorf("%w: unknown entity kind %q", models.ErrInvalidInput, entity.Kind)
	}

	entity.ID = extract.Normalize(entity.Kind, entity.ID)
	if entity.ID == "" {
		return models.FlaggedEntity{}, fmt.Errorf("%w: entity id is empty", models.ErrInvalidInput)
	}

	entity.RiskScore = models.ClampScore(entity.RiskScore)
	if entity.FirstSeen.IsZero() {
		entity.FirstSeen = now
	}
	if entity.LastSeen.IsZero() {
		entity.LastSeen = entity.FirstSeen
	}
	return entity, nil
}

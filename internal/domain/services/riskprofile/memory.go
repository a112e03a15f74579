package riskprofile

import (
	"context"
	"sync"

	"dhankavach/internal/domain/models"
)

// MemoryStore keeps profiles in process memory. It is not durable and is meant
// for tests and the "memory" store driver.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]*memoryProfile
}

type memoryProfile struct {
	mu       sync.RWMutex
	order    []string
	entities map[string]models.FlaggedEntity
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*memoryProfile)}
}

func (s *MemoryStore) profile(id string, create bool) *memoryProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok && create {
		p = &memoryProfile{entities: make(map[string]models.FlaggedEntity)}
		s.profiles[id] = p
	}
	return p
}

// Put upserts by id with the max-score merge
func (s *MemoryStore) Put(_ context.Context, profileID string, entity models.FlaggedEntity) (models.FlaggedEntity, error) {
	p := s.profile(profileID, true)

	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.entities[entity.ID]
	if ok {
		stored = stored.Merge(entity)
	} else {
		stored = entity
		stored.Notes = append([]string(nil), entity.Notes...)
		p.order = append(p.order, entity.ID)
	}
	p.entities[entity.ID] = stored

	return copyEntity(stored), nil
}

// Lookup returns exact id matches in the order ids were given
func (s *MemoryStore) Lookup(_ context.Context, profileID string, ids []string) ([]models.FlaggedEntity, error) {
	p := s.profile(profileID, false)
	if p == nil {
		return nil, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []models.FlaggedEntity
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := p.entities[id]; ok {
			out = append(out, copyEntity(e))
		}
	}
	return out, nil
}

// List returns all entities in first-seen order
func (s *MemoryStore) List(_ context.Context, profileID string) ([]models.FlaggedEntity, error) {
	p := s.profile(profileID, false)
	if p == nil {
		return nil, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.FlaggedEntity, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, copyEntity(p.entities[id]))
	}
	return out, nil
}

func copyEntity(e models.FlaggedEntity) models.FlaggedEntity {
	e.Notes = append([]string(nil), e.Notes...)
	return e
}

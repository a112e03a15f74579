// Package approval keeps family approval requests until a family member decides.
package approval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"dhankavach/internal/domain/models"
)

// Store holds approval requests. Update must apply fn atomically with respect
// to other updates of the same request.
type Store interface {
	Save(ctx context.Context, req *models.FamilyApprovalRequest) error
	Get(ctx context.Context, id string) (*models.FamilyApprovalRequest, error)
	Update(ctx context.Context, id string, fn func(*models.FamilyApprovalRequest) error) (*models.FamilyApprovalRequest, error)
}

// MemoryStore keeps requests in process with expiry
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire after ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryStore{cache: cache.New(ttl, 10*time.Minute)}
}

// Save stores a copy of req
func (s *MemoryStore) Save(_ context.Context, req *models.FamilyApprovalRequest) error {
	if req == nil || req.ID == "" {
		return fmt.Errorf("%w: approval request without id", models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(req.ID, clone(req), cache.DefaultExpiration)
	return nil
}

// Get returns a copy of the stored request
func (s *MemoryStore) Get(_ context.Context, id string) (*models.FamilyApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

// Update applies fn to a copy and stores it only when fn succeeds
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*models.FamilyApprovalRequest) error) (*models.FamilyApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(req); err != nil {
		return nil, err
	}
	s.cache.Set(id, clone(req), cache.DefaultExpiration)
	return req, nil
}

func (s *MemoryStore) get(id string) (*models.FamilyApprovalRequest, error) {
	v, found := s.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("approval %s: %w", id, models.ErrNotFound)
	}
	req, ok := v.(*models.FamilyApprovalRequest)
	if !ok {
		return nil, errors.New("approval cache holds an unexpected type")
	}
	return clone(req), nil
}

func clone(req *models.FamilyApprovalRequest) *models.FamilyApprovalRequest {
	c := *req
	c.Reasons = append([]string(nil), req.Reasons...)
	if req.ResolvedAt != nil {
		at := *req.ResolvedAt
		c.ResolvedAt = &at
	}
	return &c
}

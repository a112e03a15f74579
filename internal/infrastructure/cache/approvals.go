package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"dhankavach/internal/domain/models"
	"dhankavach/internal/domain/services/approval"
)

const maxWatchRetries = 5

// hashReader is satisfied by both *redis.Client and a WATCH transaction
type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// ApprovalStore keeps approval requests as Redis hashes so a family member can
// resolve them from any instance
type ApprovalStore struct {
	cache *RedisCache
	ttl   time.Duration
}

var _ approval.Store = (*ApprovalStore)(nil)

// NewApprovalStore creates a store whose requests expire after ttl (0 keeps them)
func NewApprovalStore(c *RedisCache, ttl time.Duration) *ApprovalStore {
	return &ApprovalStore{cache: c, ttl: ttl}
}

// Save writes req as a hash
func (s *ApprovalStore) Save(ctx context.Context, req *models.FamilyApprovalRequest) error {
	if req == nil || req.ID == "" {
		return fmt.Errorf("%w: approval request without id", models.ErrInvalidInput)
	}
	fields, err := approvalFields(req)
	if err != nil {
		return err
	}

	key := s.cache.key(KeyApprovalPrefix + req.ID)
	_, err = s.cache.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save approval %s: %w", req.ID, err)
	}
	return nil
}

// Get reads a request back
func (s *ApprovalStore) Get(ctx context.Context, id string) (*models.FamilyApprovalRequest, error) {
	return s.get(ctx, s.cache.client, id)
}

// Update applies fn under WATCH, retrying when another writer got there first
func (s *ApprovalStore) Update(ctx context.Context, id string, fn func(*models.FamilyApprovalRequest) error) (*models.FamilyApprovalRequest, error) {
	key := s.cache.key(KeyApprovalPrefix + id)

	var updated *models.FamilyApprovalRequest
	txf := func(tx *redis.Tx) error {
		req, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(req); err != nil {
			return err
		}
		fields, err := approvalFields(req)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			return nil
		})
		if err == nil {
			updated = req
		}
		return err
	}

	for range maxWatchRetries {
		err := s.cache.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("failed to update approval %s: too much contention", id)
}

func (s *ApprovalStore) get(ctx context.Context, c hashReader, id string) (*models.FamilyApprovalRequest, error) {
	fields, err := c.HGetAll(ctx, s.cache.key(KeyApprovalPrefix+id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read approval %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("approval %s: %w", id, models.ErrNotFound)
	}
	return parseApproval(fields)
}

func approvalFields(req *models.FamilyApprovalRequest) (map[string]any, error) {
	reasons, err := json.Marshal(req.Reasons)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reasons: %w", err)
	}
	fields := map[string]any{
		"id":              req.ID,
		"transaction_ref": req.TransactionRef,
		"profile_id":      req.ProfileID,
		"risk_score":      req.RiskScore,
		"required":        strconv.FormatBool(req.Required),
		"status":          string(req.Status),
		"reasons":         string(reasons),
		"created_at":      req.CreatedAt.UTC().Format(time.RFC3339Nano),
		"resolved_by":     req.ResolvedBy,
		"resolved_at":     "",
	}
	if req.ResolvedAt != nil {
		fields["resolved_at"] = req.ResolvedAt.UTC().Format(time.RFC3339Nano)
	}
	return fields, nil
}

func parseApproval(f map[string]string) (*models.FamilyApprovalRequest, error) {
	req := &models.FamilyApprovalRequest{
		ID:             f["id"],
		TransactionRef: f["transaction_ref"],
		ProfileID:      f["profile_id"],
		Status:         models.ApprovalStatus(f["status"]),
		ResolvedBy:     f["resolved_by"],
	}

	var err error
	if req.RiskScore, err = strconv.Atoi(f["risk_score"]); err != nil {
		return nil, fmt.Errorf("invalid approval risk_score: %w", err)
	}
	req.Required = f["required"] == "true"
	if raw := f["reasons"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &req.Reasons); err != nil {
			return nil, fmt.Errorf("invalid approval reasons: %w", err)
		}
	}
	if req.CreatedAt, err = time.Parse(time.RFC3339Nano, f["created_at"]); err != nil {
		return nil, fmt.Errorf("invalid approval created_at: %w", err)
	}
	if raw := f["resolved_at"]; raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid approval resolved_at: %w", err)
		}
		req.ResolvedAt = &at
	}
	return req, nil
}

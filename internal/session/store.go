package session

import (
	"context"
	"time"

	pkgredis "github.com/mconcas/pantrybot-backend/pkg/redis"
)

// State names the conversational step a session sits in. Dispatch consults
// it before falling back to command handling.
type State string

const (
	StateIdle             State = ""
	StateAwaitingCategory State = "awaiting_category"
	StateAddingCategory   State = "adding_category"
	StateRenamingProduct  State = "renaming_product"
	StateFixingBarcode    State = "fixing_barcode"
)

// Scratch field names. One redis key per (chat, user, field) so individual
// fields can be popped or expire independently.
const (
	FieldState         = "state"
	FieldScanBatch     = "scan_batch"
	FieldScanTarget    = "scan_target"
	FieldReviewBarcode = "review_barcode"
	FieldReviewSkip    = "review_skip"
)

// allFields is what Clear wipes when asked to reset a session outright.
var allFields = []string{
	FieldState,
	FieldScanBatch,
	FieldScanTarget,
	FieldReviewBarcode,
	FieldReviewSkip,
}

// Key identifies one conversation: sessions are scoped per user within a
// chat, so two people scanning in the same group never share scratch state.
type Key struct {
	ChatID int64
	UserID int64
}

// Store holds short-lived per-session scratch state. Values expire on their
// own; terminal flow transitions must still Clear what they consumed.
type Store interface {
	Get(ctx context.Context, key Key, field string) (string, bool, error)
	Set(ctx context.Context, key Key, field, value string) error
	// Pop atomically reads and removes a field.
	Pop(ctx context.Context, key Key, field string) (string, bool, error)
	// Clear removes the given fields, or every session field when none are named.
	Clear(ctx context.Context, key Key, fields ...string) error
}

type redisStore struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisStore builds the production store over the shared redis client.
func NewRedisStore(client *pkgredis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Get(ctx context.Context, key Key, field string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.client.SessionKey(key.ChatID, key.UserID, field))
	if pkgredis.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *redisStore) Set(ctx context.Context, key Key, field, value string) error {
	return s.client.Set(ctx, s.client.SessionKey(key.ChatID, key.UserID, field), value, s.ttl)
}

func (s *redisStore) Pop(ctx context.Context, key Key, field string) (string, bool, error) {
	value, err := s.client.GetDel(ctx, s.client.SessionKey(key.ChatID, key.UserID, field))
	if pkgredis.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *redisStore) Clear(ctx context.Context, key Key, fields ...string) error {
	if len(fields) == 0 {
		fields = allFields
	}
	keys := make([]string, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, s.client.SessionKey(key.ChatID, key.UserID, field))
	}
	return s.client.Del(ctx, keys...)
}

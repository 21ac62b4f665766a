package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStateNotFound signals an unknown, expired or already-consumed handshake
// state. The reconciler treats it as a provider-side fault, never as proof of
// anything about the visitor.
var ErrStateNotFound = errors.New("repository: oauth state not found")

// OAuthState is the short-lived record bridging login begin and callback.
type OAuthState struct {
	Nonce string `json:"nonce"`
	Flow  string `json:"flow"`
}

// OAuthStateStore persists handshake state between the redirect out and the
// provider's redirect back. Records are single-use.
type OAuthStateStore interface {
	Save(ctx context.Context, state string, record OAuthState, ttl time.Duration) error
	// Consume atomically fetches and deletes the record.
	Consume(ctx context.Context, state string) (OAuthState, error)
}

type redisStateStore struct {
	client *redis.Client
}

// NewOAuthStateStore returns a Redis-backed implementation.
func NewOAuthStateStore(client *redis.Client) OAuthStateStore {
	return &redisStateStore{client: client}
}

func stateKey(state string) string {
	return "oauth_state:" + state
}

func (s *redisStateStore) Save(ctx context.Context, state string, record OAuthState, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal oauth state: %w", err)
	}
	return s.client.Set(ctx, stateKey(state), payload, ttl).Err()
}

func (s *redisStateStore) Consume(ctx context.Context, state string) (OAuthState, error) {
	payload, err := s.client.GetDel(ctx, stateKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return OAuthState{}, ErrStateNotFound
		}
		return OAuthState{}, err
	}

	var record OAuthState
	if err := json.Unmarshal(payload, &record); err != nil {
		return OAuthState{}, fmt.Errorf("unmarshal oauth state: %w", err)
	}
	return record, nil
}

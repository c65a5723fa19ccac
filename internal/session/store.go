// Package session holds the current credential state of each login
// session in Redis. A session has at most one live access-token id (jti)
// and active profile at a time; rotation is a single SET, so the old pair
// stops validating the instant the new one is written.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

// State is the authoritative record of a session's current token pair.
type State struct {
	SessionID      string    `json:"sessionId"`
	UserID         string    `json:"userId"`
	HouseholdID    string    `json:"householdId"`
	ActiveMemberID string    `json:"activeMemberId,omitempty"`
	AccessJTI      string    `json:"accessJti"`
	IssuedAt       time.Time `json:"issuedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

type Store interface {
	// Put writes the session state, replacing any previous state for the
	// same session id in one atomic operation.
	Put(ctx context.Context, state *State) error
	Get(ctx context.Context, sessionID string) (*State, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func key(sessionID string) string {
	return fmt.Sprintf("profile_session:%s", sessionID)
}

func (s *redisStore) Put(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	ttl := time.Until(state.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := s.client.Set(ctx, key(state.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session state: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (*State, error) {
	data, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return state, nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, key(sessionID)).Err()
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore is the externally addressable keyed session store. All
// server instances share it, so no instance carries session state.
type SessionStore interface {
	// Create stores the identity and returns the opaque session token.
	Create(ctx context.Context, id Identity) (string, error)
	// Get resolves a token, sliding its expiry forward on each hit.
	// Returns ErrUnauthenticated when the token is absent or expired.
	Get(ctx context.Context, token string) (Identity, error)
	// Delete invalidates a session at logout. Deleting an absent token
	// is not an error.
	Delete(ctx context.Context, token string) error
}

// RedisSessions keeps sessions in Redis under a common key prefix.
type RedisSessions struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessions builds a store with the given session TTL.
func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessions{client: client, prefix: "rollcall:session:", ttl: ttl}
}

func (s *RedisSessions) Create(ctx context.Context, id Identity) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.prefix+token, payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisSessions) Get(ctx context.Context, token string) (Identity, error) {
	payload, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, err
	}
	var id Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return Identity{}, ErrUnauthenticated
	}
	// Sliding expiry; each session key is independent so concurrent
	// refreshes need no coordination.
	_ = s.client.Expire(ctx, s.prefix+token, s.ttl).Err()
	return id, nil
}

func (s *RedisSessions) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}

// MemorySessions is a process-local store for dev and tests.
type MemorySessions struct {
	ttl time.Duration

	mu    sync.Mutex
	items map[string]memorySession
}

type memorySession struct {
	identity Identity
	expires  time.Time
}

// NewMemorySessions builds an in-memory store with the given TTL.
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemorySessions{ttl: ttl, items: make(map[string]memorySession)}
}

func (s *MemorySessions) Create(ctx context.Context, id Identity) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	s.items[token] = memorySession{identity: id, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *MemorySessions) Get(ctx context.Context, token string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[token]
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	if time.Now().After(item.expires) {
		delete(s.items, token)
		return Identity{}, ErrUnauthenticated
	}
	item.expires = time.Now().Add(s.ttl)
	s.items[token] = item
	return item.identity, nil
}

func (s *MemorySessions) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.items, token)
	s.mu.Unlock()
	return nil
}

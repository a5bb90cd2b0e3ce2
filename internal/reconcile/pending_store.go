package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// PendingStore keeps AI imports suspended for operator confirmation. Entries never expire.
type PendingStore interface {
	Save(ctx context.Context, p PendingImport) error
	Load(ctx context.Context, id string) (PendingImport, error)
	Delete(ctx context.Context, id string) error
}

const pendingKeyPrefix = "reconcile:pending:"

// RedisPendingStore persists pending imports as JSON documents in redis.
type RedisPendingStore struct {
	client *redis.Client
}

func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

func (s *RedisPendingStore) Save(ctx context.Context, p PendingImport) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending import: %w", err)
	}
	return s.client.Set(ctx, pendingKeyPrefix+p.ID, raw, 0).Err()
}

func (s *RedisPendingStore) Load(ctx context.Context, id string) (PendingImport, error) {
	raw, err := s.client.Get(ctx, pendingKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingImport{}, ErrPendingNotFound
	}
	if err != nil {
		return PendingImport{}, err
	}
	var p PendingImport
	if err := json.Unmarshal(raw, &p); err != nil {
		return PendingImport{}, fmt.Errorf("decode pending import %s: %w", id, err)
	}
	return p, nil
}

func (s *RedisPendingStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, pendingKeyPrefix+id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPendingNotFound
	}
	return nil
}

// MemoryPendingStore is the in-process fallback used when redis is not configured.
type MemoryPendingStore struct {
	mu      sync.Mutex
	pending map[string]PendingImport
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{pending: make(map[string]PendingImport)}
}

func (s *MemoryPendingStore) Save(_ context.Context, p PendingImport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[p.ID] = p
	return nil
}

func (s *MemoryPendingStore) Load(_ context.Context, id string) (PendingImport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return PendingImport{}, ErrPendingNotFound
	}
	return p, nil
}

func (s *MemoryPendingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok {
		return ErrPendingNotFound
	}
	delete(s.pending, id)
	return nil
}

package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps planned itineraries between the planning and booking calls.
type Store interface {
	Save(ctx context.Context, it *Itinerary) error
	Get(ctx context.Context, id string) (*Itinerary, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	items map[string]Itinerary
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string]Itinerary)}
}

func (s *memoryStore) Save(_ context.Context, it *Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = *it
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*Itinerary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Store that keeps itineraries as JSON with a TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func redisKey(id string) string {
	return fmt.Sprintf("itinerary:%s", id)
}

func (s *redisStore) Save(ctx context.Context, it *Itinerary) error {
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("marshal itinerary failed: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(it.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save itinerary failed: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*Itinerary, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get itinerary failed: %w", err)
	}

	var it Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("decode itinerary failed: %w", err)
	}
	return &it, nil
}

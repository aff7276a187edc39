// Package memory provides in-process implementations of the storage
// interfaces, used when no durable backend is configured and in tests.
package memory

import (
	"context"
	"sync"

	"pokuclick/interfaces"
)

var (
	_ interfaces.KeyValueStore  = (*KeyValueStore)(nil)
	_ interfaces.AggregateStore = (*AggregateStore)(nil)
)

// KeyValueStore is a map guarded by a mutex.
type KeyValueStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewKeyValueStore creates an empty KeyValueStore.
func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *KeyValueStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *KeyValueStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// AggregateStore keeps the shared total in memory. A single instance can be
// shared by several aggregators to simulate concurrent clients.
type AggregateStore struct {
	mu     sync.Mutex
	value  int64
	exists bool
	reads  int
	writes int
}

// NewAggregateStore creates an AggregateStore with no record.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{}
}

// Read returns the current total.
func (s *AggregateStore) Read(ctx context.Context) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	return s.value, s.exists, nil
}

// WriteIfChanged stores value, creating the record when needed.
func (s *AggregateStore) WriteIfChanged(ctx context.Context, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists && s.value == value {
		return nil
	}
	s.value = value
	s.exists = true
	s.writes++
	return nil
}

// Stats returns the number of reads and effective writes served so far.
func (s *AggregateStore) Stats() (reads, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reads, s.writes
}

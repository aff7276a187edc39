package counter

import (
	"strconv"

	"go.uber.org/zap"

	"pokuclick/interfaces"
)

// Persisted keys.
const (
	TotalKey = "totalCounter"
	FlushKey = "flushCounter"
)

// Store is a monotonic counter persisted to a key-value store on every change.
// It has a single writer; callers serialize access.
type Store struct {
	key    string
	value  int64
	kv     interfaces.KeyValueStore
	logger *zap.Logger
}

// NewStore creates a Store for key. Call Load to restore the persisted value.
func NewStore(key string, kv interfaces.KeyValueStore, logger *zap.Logger) *Store {
	return &Store{
		key:    key,
		kv:     kv,
		logger: logger,
	}
}

// Load restores the persisted value. Missing, unreadable or malformed values
// fall back to 0.
func (s *Store) Load() int64 {
	s.value = ReadInt(s.kv, s.key, 0, s.logger)
	return s.value
}

// Increment adds by to the counter and persists it before returning.
// Non-positive amounts leave the counter unchanged.
func (s *Store) Increment(by int64) int64 {
	if by <= 0 {
		return s.value
	}
	s.value += by
	s.persist()
	return s.value
}

// Get returns the current value of the counter.
func (s *Store) Get() int64 {
	return s.value
}

// Key returns the persistence key.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) persist() {
	if err := s.kv.Set(s.key, strconv.FormatInt(s.value, 10)); err != nil {
		s.logger.Warn("Failed to persist counter",
			zap.String("key", s.key),
			zap.Int64("value", s.value),
			zap.Error(err))
	}
}

// ReadInt reads a decimal integer from kv, returning def when the key is
// absent, the store fails or the value does not parse.
func ReadInt(kv interfaces.KeyValueStore, key string, def int64, logger *zap.Logger) int64 {
	raw, ok, err := kv.Get(key)
	if err != nil {
		logger.Warn("Failed to read persisted value",
			zap.String("key", key),
			zap.Error(err))
		return def
	}
	if !ok {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		logger.Debug("Ignoring malformed persisted value",
			zap.String("key", key),
			zap.String("raw", raw))
		return def
	}
	return v
}

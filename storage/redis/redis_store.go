package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"pokuclick/interfaces"
)

var _ interfaces.AggregateStore = (*Store)(nil)

// Store keeps the shared aggregate total in a single Redis key.
type Store struct {
	client *goredis.Client
	key    string
}

func New(client *goredis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

func (s *Store) Read(ctx context.Context) (int64, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("aggregate %s is not an integer: %w", s.key, err)
	}
	return v, true, nil
}

func (s *Store) WriteIfChanged(ctx context.Context, value int64) error {
	// No expiry: the aggregate lives forever.
	return s.client.Set(ctx, s.key, value, 0).Err()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

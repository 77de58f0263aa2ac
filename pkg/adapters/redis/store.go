// Package redis stores forms and rate limit counters in Redis, so several
// engine instances can share them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/formflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "formflow:"

// Store implements ports.FormStore using Redis. Each form is one JSON string
// and a sorted set indexes the ids.
type Store struct {
	client backend.UniversalClient
	prefix string
}

// Option configures a Store or a CounterStore.
type Option func(*options)

type options struct {
	prefix string
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func apply(opts []Option) options {
	o := options{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient connects to a Redis server.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client backend.UniversalClient, opts ...Option) *Store {
	o := apply(opts)
	return &Store{
		client: client,
		prefix: o.prefix + "form:",
	}
}

func (s *Store) key(formID string) string {
	return s.prefix + formID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the form to Redis.
func (s *Store) Save(ctx context.Context, form *domain.Form) error {
	data, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("failed to marshal form: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(form.ID), data, 0)
	// Equal scores keep the index in lexical order.
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: 0, Member: form.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves the form from Redis.
func (s *Store) Get(ctx context.Context, formID string) (*domain.Form, error) {
	val, err := s.client.Get(ctx, s.key(formID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var form domain.Form
	if err := json.Unmarshal(val, &form); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form: %w", err)
	}
	return &form, nil
}

// Delete removes the form.
func (s *Store) Delete(ctx context.Context, formID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(formID))
	pipe.ZRem(ctx, s.indexKey(), formID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns the stored form ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Package extentstore persists extent summaries in Redis: the latest summary
// per dataset and every run's summary under its run id.
package extentstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mohammed-shakir/osm-ingest/internal/cache/keys"
	"github.com/mohammed-shakir/osm-ingest/internal/cache/redisstore"
	"github.com/mohammed-shakir/osm-ingest/internal/extent"
)

type Store interface {
	extent.Sink
	Latest(ctx context.Context, dataset string) (extent.Summary, bool, error)
	Run(ctx context.Context, dataset, runID string) (extent.Summary, bool, error)
	Delete(ctx context.Context, dataset string) error
}

type redisExtentStore struct {
	cli       *redisstore.Client
	ttl       time.Duration
	opTimeout time.Duration
}

// NewRedisStore stores summaries with ttl (0 keeps them forever). opTimeout
// bounds each Redis call; 0 uses the caller's context as is.
func NewRedisStore(cli *redisstore.Client, ttl, opTimeout time.Duration) Store {
	return &redisExtentStore{cli: cli, ttl: ttl, opTimeout: opTimeout}
}

func (s *redisExtentStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *redisExtentStore) Save(ctx context.Context, sum extent.Summary) error {
	if sum.Dataset == "" {
		return errors.New("extentstore: summary has no dataset")
	}
	body, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("extentstore marshal: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	latest := keys.ExtentKey(sum.Dataset)
	if sum.RunID == "" {
		err = s.cli.Set(ctx, latest, body, s.ttl)
	} else {
		err = s.cli.MSetWithTTL(ctx, map[string][]byte{
			latest:                              body,
			keys.RunKey(sum.Dataset, sum.RunID): body,
		}, s.ttl)
	}
	if err != nil {
		return fmt.Errorf("extentstore save %q: %w", sum.Dataset, err)
	}
	return nil
}

func (s *redisExtentStore) Latest(ctx context.Context, dataset string) (extent.Summary, bool, error) {
	return s.load(ctx, keys.ExtentKey(dataset))
}

func (s *redisExtentStore) Run(ctx context.Context, dataset, runID string) (extent.Summary, bool, error) {
	return s.load(ctx, keys.RunKey(dataset, runID))
}

// Delete removes the latest summary; per-run summaries expire on their own.
func (s *redisExtentStore) Delete(ctx context.Context, dataset string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.cli.Del(ctx, keys.ExtentKey(dataset)); err != nil {
		return fmt.Errorf("extentstore delete %q: %w", dataset, err)
	}
	return nil
}

func (s *redisExtentStore) load(ctx context.Context, key string) (extent.Summary, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, found, err := s.cli.Get(ctx, key)
	if err != nil || !found {
		return extent.Summary{}, false, err
	}
	var sum extent.Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return extent.Summary{}, false, fmt.Errorf("extentstore decode %q: %w", key, err)
	}
	return sum, true, nil
}

// Package ingest composes one ingestion run: a dispatch handler feeding an
// extent collector, driven by the ingest runner, with the summary handed to
// the configured sinks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mohammed-shakir/osm-ingest/internal/dispatch"
	"github.com/mohammed-shakir/osm-ingest/internal/extent"
	runner "github.com/mohammed-shakir/osm-ingest/internal/ingest"
	"github.com/mohammed-shakir/osm-ingest/internal/mapper"
)

var (
	ErrBusy      = errors.New("dataset already being ingested")
	ErrNoDataset = errors.New("dataset name is required")
	ErrNotFound  = errors.New("no extent recorded for dataset")
)

// Store is where finished summaries are kept and read back. It is also used
// as a sink. The Redis extent store satisfies it.
type Store interface {
	extent.Sink
	Latest(ctx context.Context, dataset string) (extent.Summary, bool, error)
	Run(ctx context.Context, dataset, runID string) (extent.Summary, bool, error)
	Delete(ctx context.Context, dataset string) error
}

type Options struct {
	Logger    *slog.Logger
	Mapper    mapper.Interface
	Res       int
	IndexSize int
	// Store defaults to an in-memory store.
	Store Store
	// Sinks run after Store.
	Sinks []extent.Sink
	Now   func() time.Time
}

type Request struct {
	Dataset    string
	TaggedOnly bool
	// RunID is generated when empty.
	RunID string
}

type Result struct {
	Summary extent.Summary
	Stats   runner.Stats
}

type Service struct {
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	running map[string]struct{}
}

func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	return &Service{opts: opts, log: opts.Logger, running: map[string]struct{}{}}
}

// Ingest runs src to completion for one dataset. Only one run per dataset
// may be active; a second one fails with ErrBusy.
func (s *Service) Ingest(ctx context.Context, req Request, src runner.Source) (Result, error) {
	dataset := strings.TrimSpace(req.Dataset)
	if dataset == "" {
		return Result{}, ErrNoDataset
	}
	if !s.acquire(dataset) {
		return Result{}, fmt.Errorf("%w: %s", ErrBusy, dataset)
	}
	defer s.release(dataset)

	r := runner.New(runner.Options{Logger: s.log, Dataset: dataset, RunID: req.RunID})

	sinks := append([]extent.Sink{s.opts.Store}, s.opts.Sinks...)
	col := extent.NewCollector(extent.Options{
		Dataset:   dataset,
		RunID:     r.RunID(),
		Mapper:    s.opts.Mapper,
		Res:       s.opts.Res,
		IndexSize: s.opts.IndexSize,
		Sinks:     sinks,
		Logger:    s.log,
		Now:       s.opts.Now,
	})
	h := col.Handler(dispatch.Options{
		TaggedOnly: req.TaggedOnly,
		Logger:     s.log,
		Observe:    r.Observe,
	})

	st, err := r.Run(ctx, src, h)
	return Result{Summary: col.Summary(), Stats: st}, err
}

// Latest returns the last stored summary of a dataset.
func (s *Service) Latest(ctx context.Context, dataset string) (extent.Summary, error) {
	sum, found, err := s.opts.Store.Latest(ctx, strings.TrimSpace(dataset))
	if err != nil {
		return extent.Summary{}, err
	}
	if !found {
		return extent.Summary{}, fmt.Errorf("%w: %s", ErrNotFound, dataset)
	}
	return sum, nil
}

// Run returns the stored summary of one run.
func (s *Service) Run(ctx context.Context, dataset, runID string) (extent.Summary, error) {
	dataset, runID = strings.TrimSpace(dataset), strings.TrimSpace(runID)
	sum, found, err := s.opts.Store.Run(ctx, dataset, runID)
	if err != nil {
		return extent.Summary{}, err
	}
	if !found {
		return extent.Summary{}, fmt.Errorf("%w: %s run %s", ErrNotFound, dataset, runID)
	}
	return sum, nil
}

// Delete forgets the latest summary of a dataset. It fails with ErrBusy
// while the dataset is being ingested.
func (s *Service) Delete(ctx context.Context, dataset string) error {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return ErrNoDataset
	}
	if !s.acquire(dataset) {
		return fmt.Errorf("%w: %s", ErrBusy, dataset)
	}
	defer s.release(dataset)
	if err := s.opts.Store.Delete(ctx, dataset); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "extent deleted", "dataset", dataset)
	return nil
}

func (s *Service) acquire(dataset string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[dataset]; busy {
		return false
	}
	s.running[dataset] = struct{}{}
	return true
}

func (s *Service) release(dataset string) {
	s.mu.Lock()
	delete(s.running, dataset)
	s.mu.Unlock()
}

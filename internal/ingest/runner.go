package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mohammed-shakir/osm-ingest/internal/core/observability"
	"github.com/mohammed-shakir/osm-ingest/internal/dispatch"
	"github.com/mohammed-shakir/osm-ingest/internal/logger"
	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

// Failure classes used in logs and the ingest_failures_total metric.
const (
	ClassSequence = "sequence"
	ClassCallback = "callback"
	ClassUsage    = "usage"
	ClassSource   = "source"
	ClassCanceled = "canceled"
)

var ErrSource = errors.New("entity source failed")

type Stats struct {
	RunID      string
	Dataset    string
	Nodes      int64
	Ways       int64
	Relations  int64
	Changesets int64
	Duration   time.Duration
}

func (s Stats) Total() int64 { return s.Nodes + s.Ways + s.Relations + s.Changesets }

type Options struct {
	Logger  *slog.Logger
	Dataset string
	// RunID is generated when empty.
	RunID string
}

// Runner feeds one source into one handler. Use a new handler per run.
type Runner struct {
	log     *slog.Logger
	dataset string
	runID   string
}

func New(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Runner{log: opts.Logger, dataset: opts.Dataset, runID: opts.RunID}
}

func (r *Runner) RunID() string { return r.runID }

// Observe counts dispatch events; pass it as dispatch.Options.Observe.
func (r *Runner) Observe(ev dispatch.Event) {
	observability.IncEvent(ev.String())
}

// Context returns ctx enriched with the run's log fields.
func (r *Runner) Context(ctx context.Context) context.Context {
	ctx = logger.WithRunID(ctx, r.runID)
	ctx = logger.WithDataset(ctx, r.dataset)
	return logger.WithComponent(ctx, "ingest")
}

// Run reads src until io.EOF, dispatching every entity, then finishes the
// handler. Cancellation is checked between entities; a canceled run does
// not call Finish.
func (r *Runner) Run(ctx context.Context, src Source, h *dispatch.Handler) (Stats, error) {
	ctx = r.Context(ctx)
	start := time.Now()
	st := Stats{RunID: r.runID, Dataset: r.dataset}

	r.log.InfoContext(ctx, "ingest run started")

	err := r.feed(ctx, src, h, &st)
	if err == nil {
		err = h.Finish(ctx)
	}
	st.Duration = time.Since(start)

	if err != nil {
		class := Classify(err)
		observability.IncFailure(class)
		observability.ObserveRun("error", st.Duration.Seconds())
		r.log.ErrorContext(ctx, "ingest run aborted",
			"class", class, "err", err, "records", st.Total())
		return st, err
	}

	observability.ObserveRun("ok", st.Duration.Seconds())
	r.log.InfoContext(ctx, "ingest run finished",
		"nodes", st.Nodes, "ways", st.Ways, "relations", st.Relations,
		"changesets", st.Changesets, "duration", st.Duration)
	return st, nil
}

func (r *Runner) feed(ctx context.Context, src Source, h *dispatch.Handler, st *Stats) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", ErrSource, err)
		}
		count(st, e)
		if err := h.Dispatch(ctx, e); err != nil {
			return err
		}
	}
}

func count(st *Stats, e osm.Entity) {
	kind := e.Kind()
	switch kind {
	case osm.KindNode:
		st.Nodes++
	case osm.KindWay:
		st.Ways++
	case osm.KindRelation:
		st.Relations++
	case osm.KindChangeset:
		st.Changesets++
	}
	observability.IncRecord(kind.String())
}

// Classify maps a run error to a failure class.
func Classify(err error) string {
	var (
		seqErr *dispatch.SequenceError
		cbErr  *dispatch.CallbackError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassCanceled
	case errors.As(err, &seqErr):
		return ClassSequence
	case errors.As(err, &cbErr):
		return ClassCallback
	case errors.Is(err, dispatch.ErrUsage):
		return ClassUsage
	}
	return ClassSource
}

// Package extent collects what a dispatched stream covers: its bounding box,
// per-kind counts, way completeness and an H3 cover of the box.
package extent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/osm-ingest/internal/dispatch"
	"github.com/mohammed-shakir/osm-ingest/internal/mapper"
	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

type Options struct {
	Dataset string
	RunID   string

	// Mapper and Res control the H3 cover computed on done. A nil Mapper
	// skips the cover.
	Mapper mapper.Interface
	Res    int

	// IndexSize bounds the node location index; see NewLocationIndex.
	IndexSize int

	Sinks  []Sink
	Logger *slog.Logger
	Now    func() time.Time
}

// Collector is a dispatch consumer. Build its handler with Handler, or
// register Callbacks directly, and read the result with Summary once the
// handler finished.
type Collector struct {
	opts   Options
	log    *slog.Logger
	index  *LocationIndex
	bounds osm.Bounds
	sum    Summary
	done   bool

	// set by Handler; nodes then reach seeNode through EveryNode
	everyNode bool
}

func NewCollector(opts Options) *Collector {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Collector{
		opts:   opts,
		log:    opts.Logger,
		index:  NewLocationIndex(opts.IndexSize),
		bounds: osm.NewBounds(),
		sum:    Summary{Dataset: opts.Dataset, RunID: opts.RunID},
	}
}

func (c *Collector) Callbacks() dispatch.Callbacks {
	return dispatch.Callbacks{
		Node:      c.node,
		Way:       c.way,
		Relation:  c.relation,
		Changeset: c.changeset,
		Done:      c.finish,
	}
}

// Handler returns a dispatch handler feeding c. Every node is counted and
// indexed, including the ones opts.TaggedOnly keeps from the node callback,
// so way completeness does not depend on the filter.
func (c *Collector) Handler(opts dispatch.Options) *dispatch.Handler {
	c.everyNode = true
	prev := opts.EveryNode
	opts.EveryNode = func(ctx context.Context, n *osm.Node) error {
		if prev != nil {
			if err := prev(ctx, n); err != nil {
				return err
			}
		}
		return c.seeNode(ctx, n)
	}
	return dispatch.New(c.Callbacks(), opts)
}

func (c *Collector) Bounds() osm.Bounds { return c.bounds }

func (c *Collector) Index() *LocationIndex { return c.index }

// Summary returns the final summary after done, or a snapshot without
// cover before that.
func (c *Collector) Summary() Summary {
	if c.done {
		return c.sum
	}
	s := c.sum
	s.Bounds = BoxOf(c.bounds)
	s.Valid = c.bounds.Valid()
	return s
}

func (c *Collector) node(ctx context.Context, n *osm.Node) error {
	c.sum.DeliveredNodes++
	if c.everyNode {
		return nil
	}
	return c.seeNode(ctx, n)
}

func (c *Collector) seeNode(_ context.Context, n *osm.Node) error {
	c.sum.Nodes++
	c.bounds.Extend(n.Location)
	c.index.Put(n.ID, n.Location)
	return nil
}

func (c *Collector) way(_ context.Context, w *osm.Way) error {
	c.sum.Ways++
	if c.index.Complete(w) {
		c.sum.CompleteWays++
	} else {
		c.sum.IncompleteWays++
	}
	return nil
}

func (c *Collector) relation(context.Context, *osm.Relation) error {
	c.sum.Relations++
	return nil
}

func (c *Collector) changeset(context.Context, *osm.Changeset) error {
	c.sum.Changesets++
	return nil
}

func (c *Collector) finish(ctx context.Context) error {
	s := c.Summary()
	s.FinishedAt = c.opts.Now().UTC()

	if c.opts.Mapper != nil && s.Valid {
		cov, err := c.opts.Mapper.CellsForBounds(c.bounds, c.opts.Res)
		if err != nil {
			return fmt.Errorf("extent cover: %w", err)
		}
		s.Coverage = &cov
		if cov.Coarsened {
			c.log.WarnContext(ctx, "extent cover coarsened",
				"requested_res", c.opts.Res, "res", cov.Res, "cells", len(cov.Cells))
		}
	} else if c.bounds.Defined() && !s.Valid {
		c.log.WarnContext(ctx, "extent outside valid range, skipping cover", "bounds", c.bounds.String())
	}

	c.sum = s
	c.done = true

	for i, sink := range c.opts.Sinks {
		if err := sink.Save(ctx, s); err != nil {
			return fmt.Errorf("extent sink %d: %w", i, err)
		}
	}
	c.log.InfoContext(ctx, "extent collected",
		"nodes", s.Nodes, "delivered_nodes", s.DeliveredNodes, "ways", s.Ways, "relations", s.Relations,
		"changesets", s.Changesets, "bounds", c.bounds.String())
	return nil
}

// Package dispatch delivers a stream of entities to registered callbacks,
// firing before/after hooks around each contiguous group of one kind.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

type state int

const (
	stateNotStarted state = iota
	stateNodes
	stateWays
	stateRelations
	stateChangesets
	stateStarted // init fired, no entity yet
	stateDone
	stateFailed
)

type Options struct {
	// TaggedOnly skips the node callback for nodes without tags. Such
	// nodes still open and close the node group.
	TaggedOnly bool

	// EveryNode, if set, receives each node before the TaggedOnly filter.
	// Its errors abort the stream like a node callback error.
	EveryNode NodeFunc

	Logger *slog.Logger

	// Observe, if set, is told about every event the handler reaches,
	// whether or not a callback is registered for it.
	Observe func(Event)
}

// Handler is the dispatch state machine. It is not safe for concurrent use
// and handles exactly one stream.
type Handler struct {
	cb    Callbacks
	opts  Options
	log   *slog.Logger
	state state
}

func New(cb Callbacks, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{cb: cb, opts: opts, log: opts.Logger, state: stateNotStarted}
}

// group order: node < way < relation < changeset
func groupState(k osm.EntityKind) (state, bool) {
	switch k {
	case osm.KindNode:
		return stateNodes, true
	case osm.KindWay:
		return stateWays, true
	case osm.KindRelation:
		return stateRelations, true
	case osm.KindChangeset:
		return stateChangesets, true
	}
	return 0, false
}

func kindOf(s state) osm.EntityKind {
	switch s {
	case stateNodes:
		return osm.KindNode
	case stateWays:
		return osm.KindWay
	case stateRelations:
		return osm.KindRelation
	case stateChangesets:
		return osm.KindChangeset
	}
	return osm.KindUnknown
}

// isNilEntity catches typed nil pointers, which compare unequal to nil.
func isNilEntity(e osm.Entity) bool {
	switch v := e.(type) {
	case *osm.Node:
		return v == nil
	case *osm.Way:
		return v == nil
	case *osm.Relation:
		return v == nil
	case *osm.Changeset:
		return v == nil
	}
	return false
}

func (s state) inGroup() bool { return s >= stateNodes && s <= stateChangesets }

// Dispatch delivers one entity. On a group change it first fires the after
// hook of the group being left and the before hook of the new group.
func (h *Handler) Dispatch(ctx context.Context, e osm.Entity) error {
	switch h.state {
	case stateDone:
		return &UsageError{Op: "dispatch", Reason: "called after finish"}
	case stateFailed:
		return &UsageError{Op: "dispatch", Reason: "handler aborted by an earlier error"}
	}
	if e == nil || isNilEntity(e) {
		return h.fail(&UsageError{Op: "dispatch", Reason: "nil entity"})
	}
	next, ok := groupState(e.Kind())
	if !ok {
		return h.fail(&UsageError{Op: "dispatch", Reason: "entity kind " + e.Kind().String() + " cannot be dispatched"})
	}

	if h.state == stateNotStarted {
		if err := h.fire(ctx, EventInit, h.cb.Init); err != nil {
			return h.fail(err)
		}
		h.state = stateStarted
	}

	if h.state != next {
		if h.state.inGroup() {
			if next < h.state {
				return h.fail(&SequenceError{Current: kindOf(h.state), Got: e.Kind(), ID: e.EntityID()})
			}
			if err := h.after(ctx, h.state); err != nil {
				return h.fail(err)
			}
		}
		if err := h.before(ctx, next); err != nil {
			return h.fail(err)
		}
		h.log.Debug("entity group started", "kind", e.Kind().String())
		h.state = next
	}

	if err := h.deliver(ctx, e); err != nil {
		return h.fail(err)
	}
	return nil
}

// Finish closes the open group, if any, and fires done. It must be called
// exactly once, after the last Dispatch.
func (h *Handler) Finish(ctx context.Context) error {
	switch h.state {
	case stateDone:
		return &UsageError{Op: "finish", Reason: "called twice"}
	case stateFailed:
		return &UsageError{Op: "finish", Reason: "handler aborted by an earlier error"}
	case stateNotStarted:
		if err := h.fire(ctx, EventInit, h.cb.Init); err != nil {
			return h.fail(err)
		}
		h.state = stateStarted
	}
	if h.state.inGroup() {
		if err := h.after(ctx, h.state); err != nil {
			return h.fail(err)
		}
	}
	if err := h.fire(ctx, EventDone, h.cb.Done); err != nil {
		return h.fail(err)
	}
	h.state = stateDone
	return nil
}

// Finished reports whether done has fired.
func (h *Handler) Finished() bool { return h.state == stateDone }

// Aborted reports whether an error stopped the stream.
func (h *Handler) Aborted() bool { return h.state == stateFailed }

func (h *Handler) fail(err error) error {
	h.state = stateFailed
	return err
}

func (h *Handler) before(ctx context.Context, s state) error {
	switch s {
	case stateNodes:
		return h.fire(ctx, EventBeforeNodes, h.cb.BeforeNodes)
	case stateWays:
		return h.fire(ctx, EventBeforeWays, h.cb.BeforeWays)
	case stateRelations:
		return h.fire(ctx, EventBeforeRelations, h.cb.BeforeRelations)
	case stateChangesets:
		return h.fire(ctx, EventBeforeChangesets, h.cb.BeforeChangesets)
	}
	return nil
}

func (h *Handler) after(ctx context.Context, s state) error {
	switch s {
	case stateNodes:
		return h.fire(ctx, EventAfterNodes, h.cb.AfterNodes)
	case stateWays:
		return h.fire(ctx, EventAfterWays, h.cb.AfterWays)
	case stateRelations:
		return h.fire(ctx, EventAfterRelations, h.cb.AfterRelations)
	case stateChangesets:
		return h.fire(ctx, EventAfterChangesets, h.cb.AfterChangesets)
	}
	return nil
}

func (h *Handler) fire(ctx context.Context, ev Event, fn HookFunc) error {
	h.observe(ev)
	if fn == nil {
		return nil
	}
	if err := fn(ctx); err != nil {
		return &CallbackError{Event: ev, Err: err}
	}
	return nil
}

func (h *Handler) deliver(ctx context.Context, e osm.Entity) error {
	var err error
	var ev Event
	switch v := e.(type) {
	case *osm.Node:
		ev = EventNode
		if h.opts.EveryNode != nil {
			if err := h.opts.EveryNode(ctx, v); err != nil {
				return &CallbackError{Event: ev, Err: err}
			}
		}
		if h.opts.TaggedOnly && !v.Tagged() {
			return nil
		}
		h.observe(ev)
		if h.cb.Node != nil {
			err = h.cb.Node(ctx, v)
		}
	case *osm.Way:
		ev = EventWay
		h.observe(ev)
		if h.cb.Way != nil {
			err = h.cb.Way(ctx, v)
		}
	case *osm.Relation:
		ev = EventRelation
		h.observe(ev)
		if h.cb.Relation != nil {
			err = h.cb.Relation(ctx, v)
		}
	case *osm.Changeset:
		ev = EventChangeset
		h.observe(ev)
		if h.cb.Changeset != nil {
			err = h.cb.Changeset(ctx, v)
		}
	default:
		return &UsageError{Op: "dispatch", Reason: "unsupported entity type"}
	}
	if err != nil {
		return &CallbackError{Event: ev, Err: err}
	}
	return nil
}

func (h *Handler) observe(ev Event) {
	if h.opts.Observe != nil {
		h.opts.Observe(ev)
	}
}

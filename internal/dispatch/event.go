package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

// Event names one callback slot.
type Event int

const (
	EventInit Event = iota
	EventBeforeNodes
	EventNode
	EventAfterNodes
	EventBeforeWays
	EventWay
	EventAfterWays
	EventBeforeRelations
	EventRelation
	EventAfterRelations
	EventBeforeChangesets
	EventChangeset
	EventAfterChangesets
	EventDone
)

var eventNames = [...]string{
	EventInit:             "init",
	EventBeforeNodes:      "before_nodes",
	EventNode:             "node",
	EventAfterNodes:       "after_nodes",
	EventBeforeWays:       "before_ways",
	EventWay:              "way",
	EventAfterWays:        "after_ways",
	EventBeforeRelations:  "before_relations",
	EventRelation:         "relation",
	EventAfterRelations:   "after_relations",
	EventBeforeChangesets: "before_changesets",
	EventChangeset:        "changeset",
	EventAfterChangesets:  "after_changesets",
	EventDone:             "done",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

func ParseEvent(name string) (Event, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range eventNames {
		if n == name {
			return Event(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", name)
}

// Events lists every slot in registration order.
func Events() []Event {
	out := make([]Event, len(eventNames))
	for i := range eventNames {
		out[i] = Event(i)
	}
	return out
}

// IsHook reports whether the event is a lifecycle hook rather than a
// per-entity callback.
func (e Event) IsHook() bool {
	switch e {
	case EventNode, EventWay, EventRelation, EventChangeset:
		return false
	}
	return e >= EventInit && e <= EventDone
}

type (
	HookFunc      func(ctx context.Context) error
	NodeFunc      func(ctx context.Context, n *osm.Node) error
	WayFunc       func(ctx context.Context, w *osm.Way) error
	RelationFunc  func(ctx context.Context, r *osm.Relation) error
	ChangesetFunc func(ctx context.Context, c *osm.Changeset) error
)

// Callbacks holds at most one function per event. Nil slots are skipped.
type Callbacks struct {
	Init HookFunc

	BeforeNodes HookFunc
	Node        NodeFunc
	AfterNodes  HookFunc

	BeforeWays HookFunc
	Way        WayFunc
	AfterWays  HookFunc

	BeforeRelations HookFunc
	Relation        RelationFunc
	AfterRelations  HookFunc

	BeforeChangesets HookFunc
	Changeset        ChangesetFunc
	AfterChangesets  HookFunc

	Done HookFunc
}

// SetHook registers fn for a lifecycle event, replacing any earlier one.
// Entity events have typed slots and must be set on the struct directly.
func (c *Callbacks) SetHook(ev Event, fn HookFunc) error {
	slot := c.hookSlot(ev)
	if slot == nil {
		return &UsageError{Op: "register", Reason: fmt.Sprintf("%s is not a hook event", ev)}
	}
	*slot = fn
	return nil
}

func (c *Callbacks) hookSlot(ev Event) *HookFunc {
	switch ev {
	case EventInit:
		return &c.Init
	case EventBeforeNodes:
		return &c.BeforeNodes
	case EventAfterNodes:
		return &c.AfterNodes
	case EventBeforeWays:
		return &c.BeforeWays
	case EventAfterWays:
		return &c.AfterWays
	case EventBeforeRelations:
		return &c.BeforeRelations
	case EventAfterRelations:
		return &c.AfterRelations
	case EventBeforeChangesets:
		return &c.BeforeChangesets
	case EventAfterChangesets:
		return &c.AfterChangesets
	case EventDone:
		return &c.Done
	}
	return nil
}

// Chain returns callbacks that run a's slot and then b's slot for every
// event, stopping at the first error.
func Chain(a, b Callbacks) Callbacks {
	var out Callbacks
	for _, ev := range Events() {
		if ev.IsHook() {
			*out.hookSlot(ev) = chainHooks(*a.hookSlot(ev), *b.hookSlot(ev))
		}
	}
	out.Node = chainEntity[*osm.Node](a.Node, b.Node)
	out.Way = chainEntity[*osm.Way](a.Way, b.Way)
	out.Relation = chainEntity[*osm.Relation](a.Relation, b.Relation)
	out.Changeset = chainEntity[*osm.Changeset](a.Changeset, b.Changeset)
	return out
}

func chainHooks(a, b HookFunc) HookFunc {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context) error {
		if err := a(ctx); err != nil {
			return err
		}
		return b(ctx)
	}
}

func chainEntity[T any](a, b func(context.Context, T) error) func(context.Context, T) error {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) error {
		if err := a(ctx, v); err != nil {
			return err
		}
		return b(ctx, v)
	}
}

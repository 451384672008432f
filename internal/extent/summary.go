package extent

import (
	"context"
	"time"

	"github.com/mohammed-shakir/osm-ingest/internal/mapper"
	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

// Box is the degree form of a defined Bounds.
type Box struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

func BoxOf(b osm.Bounds) *Box {
	if !b.Defined() {
		return nil
	}
	bl, tr := b.BottomLeft(), b.TopRight()
	return &Box{MinLon: bl.Lon(), MinLat: bl.Lat(), MaxLon: tr.Lon(), MaxLat: tr.Lat()}
}

// Summary describes one ingestion run. Nodes counts every node read;
// DeliveredNodes only those that passed the tagged-only filter.
type Summary struct {
	Dataset        string           `json:"dataset"`
	RunID          string           `json:"run_id"`
	Nodes          int64            `json:"nodes"`
	DeliveredNodes int64            `json:"delivered_nodes"`
	Ways           int64            `json:"ways"`
	Relations      int64            `json:"relations"`
	Changesets     int64            `json:"changesets"`
	CompleteWays   int64            `json:"complete_ways"`
	IncompleteWays int64            `json:"incomplete_ways"`
	Bounds         *Box             `json:"bounds,omitempty"`
	Valid          bool             `json:"valid"`
	Coverage       *mapper.Coverage `json:"coverage,omitempty"`
	FinishedAt     time.Time        `json:"finished_at,omitzero"`
}

// Sink receives the summary once the stream is done.
type Sink interface {
	Save(ctx context.Context, s Summary) error
}

type SinkFunc func(ctx context.Context, s Summary) error

func (f SinkFunc) Save(ctx context.Context, s Summary) error { return f(ctx, s) }

package kafka

import (
	"time"

	"github.com/mohammed-shakir/osm-ingest/internal/extent"
)

// WireEvent is the message published for every finished run.
type WireEvent struct {
	Dataset    string      `json:"dataset"`
	RunID      string      `json:"run_id,omitempty"`
	Op         string      `json:"op"`
	Bounds     *extent.Box `json:"bounds,omitempty"`
	Valid      bool        `json:"valid"`
	H3Cells    []string    `json:"h3_cells,omitempty"`
	Res        int         `json:"res"`
	Nodes      int64       `json:"nodes"`
	Delivered  int64       `json:"delivered_nodes"`
	Ways       int64       `json:"ways"`
	Relations  int64       `json:"relations"`
	Changesets int64       `json:"changesets"`
	Version    uint64      `json:"version"`
	TS         time.Time   `json:"ts"`
}

const OpExtent = "extent"

func eventFor(s extent.Summary) WireEvent {
	ev := WireEvent{
		Dataset:    s.Dataset,
		RunID:      s.RunID,
		Op:         OpExtent,
		Bounds:     s.Bounds,
		Valid:      s.Valid,
		Nodes:      s.Nodes,
		Delivered:  s.DeliveredNodes,
		Ways:       s.Ways,
		Relations:  s.Relations,
		Changesets: s.Changesets,
		TS:         s.FinishedAt,
	}
	if s.Coverage != nil {
		ev.H3Cells = s.Coverage.Cells
		ev.Res = s.Coverage.Res
	}
	if !s.FinishedAt.IsZero() {
		ev.Version = uint64(s.FinishedAt.UnixNano())
	}
	return ev
}

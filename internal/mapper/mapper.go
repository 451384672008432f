// Package mapper converts locations and extents to H3 cells.
package mapper

import (
	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

// Coverage is a sorted, de-duplicated set of cells at one resolution.
type Coverage struct {
	Res   int      `json:"resolution"`
	Cells []string `json:"cells"`
	// Coarsened is set when Res is lower than the requested resolution.
	Coarsened bool `json:"coarsened,omitempty"`
}

type Interface interface {
	CellForLocation(loc osm.Location, res int) (string, error)
	CellsForBounds(b osm.Bounds, res int) (Coverage, error)
}

package extent

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

const DefaultIndexSize = 1 << 20

// LocationIndex remembers node locations by id so ways can be checked for
// completeness. It is bounded; the least recently used ids are evicted.
type LocationIndex struct {
	lru *lru.Cache[int64, osm.Location]
}

func NewLocationIndex(size int) *LocationIndex {
	if size <= 0 {
		size = DefaultIndexSize
	}
	c, _ := lru.New[int64, osm.Location](size)
	return &LocationIndex{lru: c}
}

// Put ignores undefined locations.
func (ix *LocationIndex) Put(id int64, loc osm.Location) {
	if !loc.Defined() {
		return
	}
	ix.lru.Add(id, loc)
}

func (ix *LocationIndex) Get(id int64) (osm.Location, bool) {
	return ix.lru.Get(id)
}

func (ix *LocationIndex) Len() int { return ix.lru.Len() }

// Complete reports whether every ref of w has a known location. A way
// without refs is incomplete.
func (ix *LocationIndex) Complete(w *osm.Way) bool {
	if len(w.Refs) == 0 {
		return false
	}
	for _, ref := range w.Refs {
		if !ix.lru.Contains(ref) {
			return false
		}
	}
	return true
}

// Package ingest drives an entity source through a dispatch handler.
package ingest

import (
	"context"
	"io"

	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

// Source yields entities in file order. Next returns io.EOF after the last
// entity.
type Source interface {
	Next(ctx context.Context) (osm.Entity, error)
}

// SliceSource replays a fixed list of entities.
type SliceSource struct {
	entities []osm.Entity
	pos      int
}

func NewSliceSource(entities ...osm.Entity) *SliceSource {
	return &SliceSource{entities: entities}
}

func (s *SliceSource) Next(ctx context.Context) (osm.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.entities) {
		return nil, io.EOF
	}
	e := s.entities[s.pos]
	s.pos++
	return e, nil
}

// Package jsonl reads entities from newline-delimited JSON, one entity per
// line:
//
//	{"type":"node","id":1,"lon":13.4,"lat":52.5,"tags":{"amenity":"cafe"}}
//	{"type":"way","id":2,"refs":[1,3,4]}
//	{"type":"relation","id":3,"members":[{"type":"way","ref":2,"role":"outer"}]}
//	{"type":"changeset","id":4,"user":"mapper","num_changes":12}
//
// Blank lines are skipped. Nodes without lon/lat get an undefined location.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

const maxLineBytes = 16 << 20

type member struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref"`
	Role string `json:"role,omitempty"`
}

type record struct {
	Type       string            `json:"type"`
	ID         int64             `json:"id"`
	Lon        *float64          `json:"lon,omitempty"`
	Lat        *float64          `json:"lat,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
	Refs       []int64           `json:"refs,omitempty"`
	Members    []member          `json:"members,omitempty"`
	User       string            `json:"user,omitempty"`
	NumChanges int               `json:"num_changes,omitempty"`
}

// LineError reports which input line could not be decoded.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("jsonl line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

type Reader struct {
	sc   *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	return &Reader{sc: sc}
}

func (r *Reader) Next(ctx context.Context) (osm.Entity, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil {
				return nil, &LineError{Line: r.line + 1, Err: err}
			}
			return nil, io.EOF
		}
		r.line++
		raw := bytes.TrimSpace(r.sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		e, err := decode(raw)
		if err != nil {
			return nil, &LineError{Line: r.line, Err: err}
		}
		return e, nil
	}
}

func decode(raw []byte) (osm.Entity, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	kind, err := osm.ParseKind(rec.Type)
	if err != nil {
		return nil, err
	}
	switch kind {
	case osm.KindNode:
		loc, err := location(rec.Lon, rec.Lat)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", rec.ID, err)
		}
		return &osm.Node{ID: rec.ID, Location: loc, Tags: rec.Tags}, nil
	case osm.KindWay:
		return &osm.Way{ID: rec.ID, Refs: rec.Refs, Tags: rec.Tags}, nil
	case osm.KindRelation:
		members := make([]osm.RelationMember, 0, len(rec.Members))
		for i, m := range rec.Members {
			mk, err := osm.ParseKind(m.Type)
			if err != nil {
				return nil, fmt.Errorf("relation %d member %d: %w", rec.ID, i, err)
			}
			members = append(members, osm.RelationMember{Kind: mk, Ref: m.Ref, Role: m.Role})
		}
		return &osm.Relation{ID: rec.ID, Members: members, Tags: rec.Tags}, nil
	default:
		return &osm.Changeset{ID: rec.ID, User: rec.User, NumChanges: rec.NumChanges, Tags: rec.Tags}, nil
	}
}

func location(lon, lat *float64) (osm.Location, error) {
	if (lon == nil) != (lat == nil) {
		return osm.UndefinedLocation(), fmt.Errorf("lon and lat must be given together")
	}
	if lon == nil {
		return osm.UndefinedLocation(), nil
	}
	return osm.LocationFromDegrees(*lon, *lat)
}

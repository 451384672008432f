package jsonl

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

func readAll(t *testing.T, input string) ([]osm.Entity, error) {
	t.Helper()
	r := NewReader(strings.NewReader(input))
	var out []osm.Entity
	for {
		e, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}

func TestReader_DecodesAllKinds(t *testing.T) {
	input := `{"type":"node","id":1,"lon":13.4,"lat":52.5,"tags":{"amenity":"cafe"}}
{"type":"node","id":2}

{"type":"way","id":10,"refs":[1,2],"tags":{"highway":"path"}}
{"type":"relation","id":20,"members":[{"type":"way","ref":10,"role":"outer"},{"type":"node","ref":1}]}
{"type":"changeset","id":30,"user":"mapper","num_changes":2}
`
	got, err := readAll(t, input)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("entities=%d want 5", len(got))
	}

	n := got[0].(*osm.Node)
	if n.ID != 1 || n.Location != osm.MustLocation(13.4, 52.5) || n.Tags["amenity"] != "cafe" {
		t.Fatalf("node=%+v", n)
	}
	if got[1].(*osm.Node).Location.Defined() {
		t.Fatalf("node without coordinates must be undefined")
	}
	w := got[2].(*osm.Way)
	if w.ID != 10 || len(w.Refs) != 2 || w.Refs[1] != 2 {
		t.Fatalf("way=%+v", w)
	}
	rel := got[3].(*osm.Relation)
	if len(rel.Members) != 2 || rel.Members[0].Kind != osm.KindWay || rel.Members[0].Role != "outer" || rel.Members[1].Kind != osm.KindNode {
		t.Fatalf("relation=%+v", rel)
	}
	cs := got[4].(*osm.Changeset)
	if cs.ID != 30 || cs.User != "mapper" || cs.NumChanges != 2 {
		t.Fatalf("changeset=%+v", cs)
	}
}

func TestReader_ErrorsCarryLineNumbers(t *testing.T) {
	cases := []struct {
		name  string
		input string
		line  int
	}{
		{"bad json", "{\"type\":\"node\",\"id\":1}\n{not json}\n", 2},
		{"unknown type", "\n\n{\"type\":\"area\",\"id\":1}\n", 3},
		{"half coordinate", "{\"type\":\"node\",\"id\":1,\"lon\":1}\n", 1},
		{"bad member", "{\"type\":\"relation\",\"id\":1,\"members\":[{\"type\":\"x\",\"ref\":1}]}\n", 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := readAll(t, c.input)
			var le *LineError
			if !errors.As(err, &le) {
				t.Fatalf("expected LineError, got %v", err)
			}
			if le.Line != c.line {
				t.Fatalf("line=%d want %d", le.Line, c.line)
			}
		})
	}
}

func TestReader_RejectsUnrepresentableCoordinates(t *testing.T) {
	_, err := readAll(t, `{"type":"node","id":7,"lon":1000,"lat":0}`)
	if !errors.Is(err, osm.ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestReader_KeepsOutOfRangeButRepresentable(t *testing.T) {
	got, err := readAll(t, `{"type":"node","id":7,"lon":190,"lat":0}`)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	loc := got[0].(*osm.Node).Location
	if !loc.Defined() || loc.Valid() {
		t.Fatalf("expected defined but invalid location, got %v", loc)
	}
}

func TestReader_StopsOnCanceledContext(t *testing.T) {
	r := NewReader(strings.NewReader(`{"type":"node","id":1}`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

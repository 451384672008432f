package osm

import "testing"

func TestKind_StringAndParse(t *testing.T) {
	for _, k := range []EntityKind{KindNode, KindWay, KindRelation, KindChangeset} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q)=%v,%v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("area"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if KindUnknown.String() != "unknown" {
		t.Fatalf("unknown kind string=%q", KindUnknown.String())
	}
}

func TestEntity_Kinds(t *testing.T) {
	cases := []struct {
		e    Entity
		want EntityKind
	}{
		{&Node{ID: 1}, KindNode},
		{&Way{ID: 2}, KindWay},
		{&Relation{ID: 3}, KindRelation},
		{&Changeset{ID: 4}, KindChangeset},
	}
	for _, c := range cases {
		if c.e.Kind() != c.want {
			t.Fatalf("%T kind=%v want %v", c.e, c.e.Kind(), c.want)
		}
	}
	if (&Node{}).Tagged() {
		t.Fatalf("node without tags reports tagged")
	}
	if !(&Node{Tags: Tags{"amenity": "cafe"}}).Tagged() {
		t.Fatalf("tagged node reports untagged")
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]FileFormat{
		"berlin.osm.pbf":   FormatPBF,
		"/data/planet.osm": FormatXML,
		"planet.osm.bz2":   FormatXML,
		"changes.osc.gz":   FormatXML,
		"extract.opl":      FormatOPL,
		"dump.jsonl":       FormatJSON,
		"README":           FormatUnknown,
		"image.png":        FormatUnknown,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Fatalf("FormatFromPath(%q)=%v want %v", path, got, want)
		}
	}
	names := map[FileFormat]string{
		FormatUnknown: "unknown", FormatXML: "XML", FormatPBF: "PBF", FormatOPL: "OPL", FormatJSON: "JSON",
	}
	for f, want := range names {
		if f.String() != want {
			t.Fatalf("%d.String()=%q want %q", f, f.String(), want)
		}
	}
}

package h3mapper

import (
	"testing"

	h3 "github.com/uber/h3-go/v4"
)

func TestToParent(t *testing.T) {
	m := New(0)

	cell, err := h3.LatLngToCell(h3.LatLng{Lat: 59.3293, Lng: 18.0686}, 8)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	parent, err := cell.Parent(7)
	if err != nil {
		t.Fatalf("Parent: %v", err)
	}

	got, err := m.ToParent(cell.String(), 7)
	if err != nil {
		t.Fatalf("ToParent: %v", err)
	}
	if got != parent.String() {
		t.Fatalf("parent=%s want %s", got, parent)
	}

	same, err := m.ToParent(cell.String(), 8)
	if err != nil || same != cell.String() {
		t.Fatalf("same-res parent=%s err=%v", same, err)
	}
}

func TestToParent_BadInput(t *testing.T) {
	m := New(0)
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: 57.7089, Lng: 11.9746}, 9)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	if _, err := m.ToParent(cell.String(), 10); err == nil {
		t.Fatalf("expected error for parentRes > current res")
	}
	if _, err := m.ToParent("not-a-cell", 3); err == nil {
		t.Fatalf("expected parse error")
	}
}

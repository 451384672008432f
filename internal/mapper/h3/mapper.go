package h3mapper

import (
	"errors"
	"fmt"
	"math"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/osm-ingest/internal/mapper"
	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

const DefaultMaxCells = 4096

var ErrInvalidBounds = errors.New("bounds outside the valid coordinate range")

// Mapper covers extents with H3 cells, coarsening the resolution until the
// cover fits in maxCells.
type Mapper struct {
	maxCells int
}

func New(maxCells int) *Mapper {
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	return &Mapper{maxCells: maxCells}
}

func (m *Mapper) MaxCells() int { return m.maxCells }

func (m *Mapper) CellForLocation(loc osm.Location, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	if !loc.Valid() {
		return "", fmt.Errorf("location %s: %w", loc, ErrInvalidBounds)
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: loc.Lat(), Lng: loc.Lon()}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}

// CellsForBounds returns the cells covering b. An undefined box has an empty
// cover. The corner cells are always included so that boxes smaller than a
// cell, points and lines still produce a cover.
func (m *Mapper) CellsForBounds(b osm.Bounds, res int) (mapper.Coverage, error) {
	if err := validateRes(res); err != nil {
		return mapper.Coverage{}, err
	}
	if !b.Defined() {
		return mapper.Coverage{Res: res, Cells: []string{}}, nil
	}
	if !b.Valid() {
		return mapper.Coverage{}, fmt.Errorf("bounds %s: %w", b, ErrInvalidBounds)
	}

	start := startRes(b, res, m.maxCells)
	cells, err := cover(b, start)
	if err != nil {
		return mapper.Coverage{}, err
	}
	cur := start
	for len(cells) > m.maxCells && cur > 0 {
		cur--
		if cells, err = m.parents(cells, cur); err != nil {
			return mapper.Coverage{}, err
		}
	}
	return mapper.Coverage{Res: cur, Cells: cells, Coarsened: cur < res}, nil
}

func (m *Mapper) parents(cells []string, res int) ([]string, error) {
	out := make([]string, 0, len(cells)/7+1)
	seen := make(map[string]struct{}, len(cells)/7+1)
	for _, c := range cells {
		p, err := m.ToParent(c, res)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// average hexagon area in km² per resolution
var hexAreaKm2 = [16]float64{
	4357449.416078383, 609788.441794133, 86801.780398997, 12393.434655088,
	1770.347654491, 252.903858182, 36.129062164, 5.161293360,
	0.737327598, 0.105332513, 0.015047502, 0.002149643,
	0.000307092, 0.000043870, 0.000006267, 0.000000895,
}

// approxAreaKm2 is an equirectangular estimate of the box area.
func approxAreaKm2(b osm.Bounds) float64 {
	bl, tr := b.BottomLeft(), b.TopRight()
	midLat := (bl.Lat() + tr.Lat()) / 2 * math.Pi / 180
	w := (tr.Lon() - bl.Lon()) * 111.320 * math.Cos(midLat)
	h := (tr.Lat() - bl.Lat()) * 110.574
	return math.Abs(w * h)
}

// startRes skips resolutions whose estimated cover is far above the limit so
// polyfill never has to enumerate millions of cells.
func startRes(b osm.Bounds, res, maxCells int) int {
	area := approxAreaKm2(b)
	for res > 0 && area/hexAreaKm2[res] > float64(maxCells)*4 {
		res--
	}
	return res
}

// maxSpanDeg keeps each polyfill loop narrower than a hemisphere; H3 reads
// wider edges as crossing the antimeridian.
const maxSpanDeg = 90.0

func cover(b osm.Bounds, res int) ([]string, error) {
	bl, tr := b.BottomLeft(), b.TopRight()
	seen := make(map[string]struct{})
	var out []string
	add := func(c h3.Cell) {
		s := c.String()
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	corners := []h3.LatLng{
		{Lat: bl.Lat(), Lng: bl.Lon()},
		{Lat: bl.Lat(), Lng: tr.Lon()},
		{Lat: tr.Lat(), Lng: tr.Lon()},
		{Lat: tr.Lat(), Lng: bl.Lon()},
	}
	for _, ll := range corners {
		c, err := h3.LatLngToCell(ll, res)
		if err != nil {
			return nil, fmt.Errorf("h3 cell: %w", err)
		}
		add(c)
	}

	if bl.X() != tr.X() && bl.Y() != tr.Y() {
		for x1 := bl.Lon(); x1 < tr.Lon(); x1 += maxSpanDeg {
			x2 := math.Min(x1+maxSpanDeg, tr.Lon())
			outer := h3.GeoLoop{
				{Lat: bl.Lat(), Lng: x1},
				{Lat: bl.Lat(), Lng: x2},
				{Lat: tr.Lat(), Lng: x2},
				{Lat: tr.Lat(), Lng: x1},
			}
			cells, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: outer}, res)
			if err != nil {
				return nil, fmt.Errorf("h3 polyfill: %w", err)
			}
			for _, c := range cells {
				add(c)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

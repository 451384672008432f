package osm

// Bounds accumulates the smallest box enclosing every defined location passed
// to Extend. The zero value is an empty, undefined box.
type Bounds struct {
	bottomLeft Location
	topRight   Location
	set        bool
}

// NewBounds returns an empty box, equal to Bounds{}.
func NewBounds() Bounds { return Bounds{} }

// Extend grows the box to include loc. Undefined locations are ignored.
func (b *Bounds) Extend(loc Location) *Bounds {
	if !loc.Defined() {
		return b
	}
	if !b.set {
		b.bottomLeft = loc
		b.topRight = loc
		b.set = true
		return b
	}
	b.bottomLeft = mergeCorner(b.bottomLeft, loc, true)
	b.topRight = mergeCorner(b.topRight, loc, false)
	return b
}

// mergeCorner takes each axis of candidate only where it widens the range.
func mergeCorner(current, candidate Location, isMin bool) Location {
	out := current
	if isMin {
		if candidate.x < out.x {
			out.x = candidate.x
		}
		if candidate.y < out.y {
			out.y = candidate.y
		}
		return out
	}
	if candidate.x > out.x {
		out.x = candidate.x
	}
	if candidate.y > out.y {
		out.y = candidate.y
	}
	return out
}

func (b Bounds) Defined() bool { return b.set }

func (b Bounds) Valid() bool {
	return b.set && b.bottomLeft.Valid() && b.topRight.Valid()
}

// BottomLeft is undefined for an empty box.
func (b Bounds) BottomLeft() Location {
	if !b.set {
		return UndefinedLocation()
	}
	return b.bottomLeft
}

func (b Bounds) TopRight() Location {
	if !b.set {
		return UndefinedLocation()
	}
	return b.topRight
}

func (b Bounds) Contains(loc Location) bool {
	if !b.Defined() || !loc.Defined() {
		return false
	}
	return loc.x >= b.bottomLeft.x && loc.x <= b.topRight.x &&
		loc.y >= b.bottomLeft.y && loc.y <= b.topRight.y
}

// Area in squared fixed-point units; 0 for an undefined box.
func (b Bounds) Area() int64 {
	if !b.Defined() {
		return 0
	}
	w := int64(b.topRight.x) - int64(b.bottomLeft.x)
	h := int64(b.topRight.y) - int64(b.bottomLeft.y)
	return w * h
}

func (b Bounds) String() string {
	if !b.Defined() {
		return "(undefined)"
	}
	return b.bottomLeft.String() + "-" + b.topRight.String()
}

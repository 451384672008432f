package osm

import (
	"fmt"
	"strings"
)

// EntityKind identifies the dispatch group of an entity. KindUnknown is only
// used outside entity dispatch.
type EntityKind int

const (
	KindUnknown EntityKind = iota
	KindNode
	KindWay
	KindRelation
	KindChangeset
)

func (k EntityKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindRelation:
		return "relation"
	case KindChangeset:
		return "changeset"
	}
	return "unknown"
}

func ParseKind(s string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "node", "n":
		return KindNode, nil
	case "way", "w":
		return KindWay, nil
	case "relation", "r":
		return KindRelation, nil
	case "changeset", "c":
		return KindChangeset, nil
	}
	return KindUnknown, fmt.Errorf("unknown entity kind %q", s)
}

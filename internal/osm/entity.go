package osm

/*
 * Entities as delivered by a format reader. Every entity has a 64 bit id
 * that is unique among entities of the same kind. Only nodes carry a
 * location; way and relation geometry has to be resolved through their
 * node references.
 */

type Entity interface {
	Kind() EntityKind
	EntityID() int64
}

type Tags map[string]string

// A node is a single point. Its location may be undefined, for example in
// deleted objects of a change file.
type Node struct {
	ID       int64
	Location Location
	Tags     Tags
}

// A way is an ordered list of node references.
type Way struct {
	ID   int64
	Refs []int64
	Tags Tags
}

// RelationMember points at another entity; Role depends on the relation type.
type RelationMember struct {
	Kind EntityKind
	Ref  int64
	Role string
}

type Relation struct {
	ID      int64
	Members []RelationMember
	Tags    Tags
}

// A changeset groups the edits of one upload session.
type Changeset struct {
	ID         int64
	User       string
	NumChanges int
	Tags       Tags
}

func (n *Node) Kind() EntityKind      { return KindNode }
func (w *Way) Kind() EntityKind       { return KindWay }
func (r *Relation) Kind() EntityKind  { return KindRelation }
func (c *Changeset) Kind() EntityKind { return KindChangeset }

func (n *Node) EntityID() int64      { return n.ID }
func (w *Way) EntityID() int64       { return w.ID }
func (r *Relation) EntityID() int64  { return r.ID }
func (c *Changeset) EntityID() int64 { return c.ID }

func (n *Node) Tagged() bool { return len(n.Tags) > 0 }

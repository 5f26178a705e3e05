// Package collision turns spatial-grid candidates into collision events.
//
// Each tick the pipeline narrows the grid's candidate pairs down to real
// overlaps and publishes them on the event bus. Every confirmed pair goes
// out on the generic topic, on one topic per collider type, and on a
// type-pair topic, so listeners can subscribe as broadly or narrowly as
// they want.
package collision

import "github.com/rangzgamez/escape-core/internal/core/ecs"

// Topic carries every confirmed collision.
const Topic = "collision"

// TopicFor carries collisions involving one collider type. The event's
// A side is always the entity of that type.
func TopicFor(collType string) string {
	return Topic + ":" + collType
}

// TopicForPair carries collisions between two collider types. The type
// names are ordered so both argument orders yield the same topic, and
// the event's A side is always the first type in the topic name.
func TopicForPair(typeA, typeB string) string {
	if typeB < typeA {
		typeA, typeB = typeB, typeA
	}
	return Topic + ":" + typeA + ":" + typeB
}

// Faces of collider B that A can contact.
const (
	SideLeft   = "left"
	SideRight  = "right"
	SideTop    = "top"
	SideBottom = "bottom"
)

// Event is the payload for every collision topic.
type Event struct {
	A, B  ecs.EntityID
	TypeA string
	TypeB string
	Side  string // face of B that A contacted

	// Extents of the overlap region on each axis.
	OverlapX float64
	OverlapY float64
}

// Swapped returns the event from B's point of view.
func (e Event) Swapped() Event {
	return Event{
		A:        e.B,
		B:        e.A,
		TypeA:    e.TypeB,
		TypeB:    e.TypeA,
		Side:     flipSide(e.Side),
		OverlapX: e.OverlapX,
		OverlapY: e.OverlapY,
	}
}

func flipSide(s string) string {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	}
	return s
}

// Package component holds the built-in component types and their kind names.
// Components are plain data. Systems own all mutation; the registry stores
// them as opaque values behind their Kind.
package component

import "github.com/rangzgamez/escape-core/internal/core/ecs"

// Kind names for the built-in components. The kind space is open:
// game code registers its own kinds alongside these.
const (
	KindTransform ecs.Kind = "transform"
	KindCollider  ecs.Kind = "collider"
	KindVelocity  ecs.Kind = "velocity"
)

// Transform is an entity's world position. PrevX/PrevY hold the position
// from the previous frame; the movement system copies them forward before
// integrating, and one-way platform checks read them.
type Transform struct {
	X, Y         float64
	PrevX, PrevY float64
}

// NewTransform places an entity with no motion history: the previous
// position starts equal to the current one, so the first frame reads
// as at rest.
func NewTransform(x, y float64) *Transform {
	return &Transform{X: x, Y: y, PrevX: x, PrevY: y}
}

package component

import "github.com/rangzgamez/escape-core/internal/spatial"

// Collider is an axis-aligned collision box anchored to a transform.
type Collider struct {
	W, H             float64
	OffsetX, OffsetY float64 // box origin relative to the transform

	Layer uint32 // bit identifying what this collider is
	Mask  uint32 // bits of the layers this collider wants to hit

	// Type names the collider for event routing: a non-empty type
	// publishes "collision:<type>" alongside the generic topic.
	Type string

	// OneWay colliders only block movers arriving from above.
	OneWay bool
}

// Bounds returns the collider's world-space box for the given transform.
func (c *Collider) Bounds(tr *Transform) spatial.AABB {
	return spatial.AABB{
		X: tr.X + c.OffsetX,
		Y: tr.Y + c.OffsetY,
		W: c.W,
		H: c.H,
	}
}

// Matches reports whether this collider's mask accepts the other's layer.
// Pair filtering holds a pair if either side matches the other.
func (c *Collider) Matches(other *Collider) bool {
	return c.Mask&other.Layer != 0
}

package component

// Velocity is an entity's motion in pixels per second.
type Velocity struct {
	VX, VY float64
}

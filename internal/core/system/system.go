package system

import (
	"time"

	"github.com/rangzgamez/escape-core/internal/core/ecs"
)

// Priorities for the built-in passes. Lower runs first; systems with
// equal priority run in registration order.
const (
	PriorityPhysics   = 10
	PriorityCollision = 20
	PriorityRender    = 100
)

// System is anything the scheduler can order. Behavior comes from the
// capability interfaces below; a System implementing none of them is
// ordered but never called.
type System interface {
	Priority() int
}

// FrameUpdater runs once per tick, before any per-entity pass.
type FrameUpdater interface {
	System
	UpdateFrame(dt time.Duration)
}

// EntityUpdater runs once per tick for every active entity carrying
// all of its required kinds.
type EntityUpdater interface {
	System
	RequiredKinds() []ecs.Kind
	UpdateEntity(id ecs.EntityID, dt time.Duration)
}

// Drawer renders during the draw pass.
type Drawer interface {
	System
	Draw(r Renderer)
}

// Renderer is the drawing surface handed to Drawers. The simulator
// wires a logging renderer; a real frontend substitutes its own.
type Renderer interface {
	Rect(x, y, w, h float64)
	Circle(x, y, r float64)
	Polygon(pts ...float64)
	Quad(tex string, x, y, w, h float64)
}

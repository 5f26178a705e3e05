package system

import (
	"time"

	"github.com/rangzgamez/escape-core/internal/component"
	"github.com/rangzgamez/escape-core/internal/core/ecs"
	coresys "github.com/rangzgamez/escape-core/internal/core/system"
	"github.com/rangzgamez/escape-core/internal/world"
)

// MovementSystem integrates velocity into position under constant
// gravity, semi-implicit: velocity first, then position. It runs before
// the collision pass, so contacts compare this frame's positions with
// last frame's history.
type MovementSystem struct {
	world   *world.World
	gravity float64
}

func NewMovementSystem(w *world.World, gravity float64) *MovementSystem {
	return &MovementSystem{world: w, gravity: gravity}
}

func (s *MovementSystem) Priority() int { return coresys.PriorityPhysics }

func (s *MovementSystem) RequiredKinds() []ecs.Kind {
	return []ecs.Kind{component.KindTransform, component.KindVelocity}
}

func (s *MovementSystem) UpdateEntity(id ecs.EntityID, dt time.Duration) {
	rawT, _ := s.world.GetComponent(id, component.KindTransform)
	rawV, _ := s.world.GetComponent(id, component.KindVelocity)
	tr, okT := rawT.(*component.Transform)
	vel, okV := rawV.(*component.Velocity)
	if !okT || !okV {
		return
	}

	step := dt.Seconds()
	vel.VY += s.gravity * step
	tr.PrevX, tr.PrevY = tr.X, tr.Y
	_ = s.world.SetPosition(id, tr.X+vel.VX*step, tr.Y+vel.VY*step)
}

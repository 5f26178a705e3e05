package system

import (
	"github.com/rangzgamez/escape-core/internal/component"
	coresys "github.com/rangzgamez/escape-core/internal/core/system"
	"github.com/rangzgamez/escape-core/internal/world"
)

// DebugDrawSystem renders grid occupancy and collider outlines through
// whatever Renderer the host supplies: occupied cells first, then one
// rectangle per collider.
type DebugDrawSystem struct {
	world *world.World
}

func NewDebugDrawSystem(w *world.World) *DebugDrawSystem {
	return &DebugDrawSystem{world: w}
}

func (s *DebugDrawSystem) Priority() int { return coresys.PriorityRender }

func (s *DebugDrawSystem) Draw(r coresys.Renderer) {
	for _, cell := range s.world.DebugCells() {
		r.Rect(cell.X, cell.Y, cell.W, cell.H)
	}
	for _, id := range s.world.EntitiesWith(component.KindTransform, component.KindCollider) {
		rawT, _ := s.world.GetComponent(id, component.KindTransform)
		rawC, _ := s.world.GetComponent(id, component.KindCollider)
		tr, okT := rawT.(*component.Transform)
		col, okC := rawC.(*component.Collider)
		if !okT || !okC {
			continue
		}
		b := col.Bounds(tr)
		r.Rect(b.X, b.Y, b.W, b.H)
	}
}

package system

import (
	"time"

	"github.com/rangzgamez/escape-core/internal/component"
	"github.com/rangzgamez/escape-core/internal/core/ecs"
	coresys "github.com/rangzgamez/escape-core/internal/core/system"
	"github.com/rangzgamez/escape-core/internal/world"
)

// BoundsSystem culls entities that fall past the world's lower edge
// (y grows downward). Pooled entities go back to their pool; everything
// else is deactivated and reaped.
type BoundsSystem struct {
	world  *world.World
	maxY   float64
	culled int
}

func NewBoundsSystem(w *world.World, maxY float64) *BoundsSystem {
	return &BoundsSystem{world: w, maxY: maxY}
}

func (s *BoundsSystem) Priority() int { return coresys.PriorityCollision + 10 }

func (s *BoundsSystem) RequiredKinds() []ecs.Kind {
	return []ecs.Kind{component.KindTransform}
}

func (s *BoundsSystem) UpdateEntity(id ecs.EntityID, _ time.Duration) {
	raw, _ := s.world.GetComponent(id, component.KindTransform)
	tr, ok := raw.(*component.Transform)
	if !ok || tr.Y <= s.maxY {
		return
	}

	s.culled++
	if s.world.PoolKey(id) != "" {
		_ = s.world.ReturnToPool(id)
		return
	}
	_ = s.world.SetActive(id, false)
}

// Culled reports how many entities have gone over the edge so far.
func (s *BoundsSystem) Culled() int { return s.culled }

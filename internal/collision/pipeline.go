package collision

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rangzgamez/escape-core/internal/component"
	"github.com/rangzgamez/escape-core/internal/core/ecs"
	"github.com/rangzgamez/escape-core/internal/core/event"
	"github.com/rangzgamez/escape-core/internal/core/system"
	"github.com/rangzgamez/escape-core/internal/spatial"
)

// Pipeline narrows grid candidates to confirmed collisions and publishes
// them. It registers with the scheduler as a frame system so the whole
// pass runs once per tick, after movement has settled positions.
type Pipeline struct {
	reg  *ecs.Registry
	grid *spatial.Grid
	bus  *event.Bus
	log  *zap.Logger
}

var _ system.FrameUpdater = (*Pipeline)(nil)

func NewPipeline(reg *ecs.Registry, grid *spatial.Grid, bus *event.Bus, log *zap.Logger) *Pipeline {
	return &Pipeline{reg: reg, grid: grid, bus: bus, log: log}
}

func (p *Pipeline) Priority() int { return system.PriorityCollision }

func (p *Pipeline) UpdateFrame(time.Duration) { p.Run() }

// Run executes one collision pass and reports how many pairs were
// confirmed and published. Candidate pairs are deduplicated and ordered
// before narrowing, so event order is deterministic for a given world
// state.
func (p *Pipeline) Run() int {
	confirmed := 0
	for _, pair := range spatial.DedupPairs(p.grid.PotentialPairs()) {
		if p.resolve(pair[0], pair[1]) {
			confirmed++
		}
	}
	return confirmed
}

// resolve narrows one candidate pair. The grid can briefly hold entities
// whose components changed under it this tick; those pairs are dropped
// here rather than treated as errors.
func (p *Pipeline) resolve(a, b ecs.EntityID) bool {
	ta, ca, ok := p.lookup(a)
	if !ok {
		return false
	}
	tb, cb, ok := p.lookup(b)
	if !ok {
		return false
	}

	// A pair survives filtering if either side's mask accepts the
	// other's layer. The hit is mutual even when only one side asked.
	if !ca.Matches(cb) && !cb.Matches(ca) {
		return false
	}

	ba := ca.Bounds(ta)
	bb := cb.Bounds(tb)
	if !ba.Intersects(bb) {
		return false
	}

	// One-way colliders only register movers arriving from above:
	// the mover's bottom edge last frame must sit at or above the
	// platform's top. Equality keeps resting contact alive.
	if cb.OneWay && ta.PrevY+ca.OffsetY+ca.H > bb.Y {
		return false
	}
	if ca.OneWay && tb.PrevY+cb.OffsetY+cb.H > ba.Y {
		return false
	}

	overlapX := math.Min(ba.X+ba.W, bb.X+bb.W) - math.Max(ba.X, bb.X)
	overlapY := math.Min(ba.Y+ba.H, bb.Y+bb.H) - math.Max(ba.Y, bb.Y)

	ev := Event{
		A:        a,
		B:        b,
		TypeA:    ca.Type,
		TypeB:    cb.Type,
		Side:     contactSide(ba, bb, overlapX, overlapY),
		OverlapX: overlapX,
		OverlapY: overlapY,
	}
	p.publish(ev)
	return true
}

func (p *Pipeline) lookup(id ecs.EntityID) (*component.Transform, *component.Collider, bool) {
	if !p.reg.Active(id) {
		p.log.Debug("collision candidate dropped", zap.Uint64("entity", uint64(id)))
		return nil, nil, false
	}
	rawT, ok := p.reg.GetComponent(id, component.KindTransform)
	if !ok {
		return nil, nil, false
	}
	rawC, ok := p.reg.GetComponent(id, component.KindCollider)
	if !ok {
		return nil, nil, false
	}
	tr, okT := rawT.(*component.Transform)
	c, okC := rawC.(*component.Collider)
	if !okT || !okC {
		p.log.Debug("collision candidate has malformed components",
			zap.Uint64("entity", uint64(id)))
		return nil, nil, false
	}
	return tr, c, true
}

// publish fans one confirmed collision out to its topics: the generic
// topic always, one topic per non-empty collider type, and the pair
// topic when both types are set. Each topic fires exactly once per pair.
func (p *Pipeline) publish(ev Event) {
	p.bus.Publish(Topic, ev)

	if ev.TypeA != "" {
		p.bus.Publish(TopicFor(ev.TypeA), ev)
	}
	if ev.TypeB != "" && ev.TypeB != ev.TypeA {
		p.bus.Publish(TopicFor(ev.TypeB), ev.Swapped())
	}

	if ev.TypeA != "" && ev.TypeB != "" {
		pairEv := ev
		if ev.TypeB < ev.TypeA {
			pairEv = ev.Swapped()
		}
		p.bus.Publish(TopicForPair(ev.TypeA, ev.TypeB), pairEv)
	}
}

// contactSide picks the face of B that A contacted from the shallower
// overlap axis. Y grows downward, so A above B means B's top face.
func contactSide(ba, bb spatial.AABB, overlapX, overlapY float64) string {
	if overlapX < overlapY {
		if ba.X+ba.W/2 < bb.X+bb.W/2 {
			return SideLeft
		}
		return SideRight
	}
	if ba.Y+ba.H/2 < bb.Y+bb.H/2 {
		return SideTop
	}
	return SideBottom
}

package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rangzgamez/escape-core/internal/component"
	"github.com/rangzgamez/escape-core/internal/config"
	"github.com/rangzgamez/escape-core/internal/core/ecs"
	"github.com/rangzgamez/escape-core/internal/spatial"
	"github.com/rangzgamez/escape-core/internal/world"
)

// quarter keeps every integration product exactly representable, so
// position asserts can compare with ==.
const quarter = 250 * time.Millisecond

func newWorld(t *testing.T) *world.World {
	t.Helper()
	cfg := config.Default()
	cfg.Random.Seed = 1
	w := world.New(cfg, zap.NewNop())
	t.Cleanup(w.Close)
	return w
}

func spawnMover(t *testing.T, w *world.World, x, y, vx, vy float64) ecs.EntityID {
	t.Helper()
	id := w.CreateEntity()
	if err := w.AddComponent(id, component.KindTransform, component.NewTransform(x, y)); err != nil {
		t.Fatalf("add transform: %v", err)
	}
	if err := w.AddComponent(id, component.KindVelocity, &component.Velocity{VX: vx, VY: vy}); err != nil {
		t.Fatalf("add velocity: %v", err)
	}
	return id
}

func transformOf(t *testing.T, w *world.World, id ecs.EntityID) *component.Transform {
	t.Helper()
	raw, ok := w.GetComponent(id, component.KindTransform)
	if !ok {
		t.Fatalf("entity %d has no transform", id)
	}
	return raw.(*component.Transform)
}

func TestMovementIntegratesAndTracksHistory(t *testing.T) {
	w := newWorld(t)
	w.RegisterSystem(NewMovementSystem(w, 0))
	id := spawnMover(t, w, 0, 0, 8, 0)

	w.Update(quarter)
	tr := transformOf(t, w, id)
	if tr.X != 2 || tr.Y != 0 {
		t.Fatalf("after one tick: (%v, %v), want (2, 0)", tr.X, tr.Y)
	}
	if tr.PrevX != 0 || tr.PrevY != 0 {
		t.Fatalf("history after one tick: (%v, %v), want (0, 0)", tr.PrevX, tr.PrevY)
	}

	w.Update(quarter)
	if tr.X != 4 || tr.PrevX != 2 {
		t.Fatalf("after two ticks: x=%v prev=%v, want 4 and 2", tr.X, tr.PrevX)
	}
}

func TestMovementAppliesGravity(t *testing.T) {
	w := newWorld(t)
	w.RegisterSystem(NewMovementSystem(w, 100))
	id := spawnMover(t, w, 0, 0, 0, 0)

	w.Update(quarter)
	tr := transformOf(t, w, id)
	if tr.Y != 6.25 {
		t.Fatalf("y after one tick = %v, want 6.25", tr.Y)
	}

	w.Update(quarter)
	if tr.Y != 18.75 {
		t.Fatalf("y after two ticks = %v, want 18.75", tr.Y)
	}

	raw, _ := w.GetComponent(id, component.KindVelocity)
	if vel := raw.(*component.Velocity); vel.VY != 50 {
		t.Fatalf("vy after two ticks = %v, want 50", vel.VY)
	}
}

func TestMovementRefreshesGridFootprint(t *testing.T) {
	w := newWorld(t)
	w.RegisterSystem(NewMovementSystem(w, 0))
	id := spawnMover(t, w, 0, 0, 400, 0)
	if err := w.AddComponent(id, component.KindCollider, &component.Collider{W: 10, H: 10, Layer: 1, Mask: 1}); err != nil {
		t.Fatalf("add collider: %v", err)
	}

	w.Update(quarter)
	if got := w.EntitiesInRect(spatial.AABB{X: 0, Y: 0, W: 20, H: 20}); len(got) != 0 {
		t.Fatalf("old footprint still occupied: %v", got)
	}
	if got := w.EntitiesInRect(spatial.AABB{X: 95, Y: -5, W: 20, H: 20}); len(got) != 1 || got[0] != id {
		t.Fatalf("new footprint = %v, want [%d]", got, id)
	}
}

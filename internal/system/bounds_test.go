package system

import (
	"testing"

	"github.com/rangzgamez/escape-core/internal/component"
)

func TestBoundsCullsBelowEdge(t *testing.T) {
	w := newWorld(t)
	bounds := NewBoundsSystem(w, 100)
	w.RegisterSystem(bounds)

	keeper := spawnMover(t, w, 0, 50, 0, 0)
	edge := spawnMover(t, w, 0, 100, 0, 0)
	stray := spawnMover(t, w, 0, 150, 0, 0)

	faller := w.PooledEntity("faller")
	if err := w.AddComponent(faller, component.KindTransform, component.NewTransform(0, 200)); err != nil {
		t.Fatalf("add transform: %v", err)
	}

	w.Update(quarter)

	if !w.Active(keeper) {
		t.Fatal("keeper above the edge was culled")
	}
	if !w.Active(edge) {
		t.Fatal("entity exactly on the edge was culled")
	}
	if w.Valid(stray) {
		t.Fatal("non-pooled stray should be reaped")
	}
	if w.Active(faller) {
		t.Fatal("pooled faller still active")
	}
	if key := w.PoolKey(faller); key != "faller" {
		t.Fatalf("faller lost its pool: %q", key)
	}
	if free, size := w.Registry().PoolStats("faller"); free != size {
		t.Fatalf("pool not refilled: free=%d size=%d", free, size)
	}
	if bounds.Culled() != 2 {
		t.Fatalf("Culled = %d, want 2", bounds.Culled())
	}
}

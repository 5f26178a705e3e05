package world

import (
	"github.com/rangzgamez/escape-core/internal/component"
	"github.com/rangzgamez/escape-core/internal/core/ecs"
	"github.com/rangzgamez/escape-core/internal/core/event"
)

// wireGridSync rides the registry's lifecycle events so every path that
// changes a collision footprint lands in the grid: component add and
// remove, activation, deactivation, reap, and snapshot decode. No call
// site has to remember to sync.
func (w *World) wireGridSync() {
	w.subscribeInternal(ecs.TopicComponentAdded, func(_ string, payload any) {
		ev, ok := payload.(ecs.ComponentEvent)
		if !ok {
			return
		}
		if ev.Kind == component.KindTransform || ev.Kind == component.KindCollider {
			w.syncGrid(ev.Entity)
		}
	})
	w.subscribeInternal(ecs.TopicComponentRemoved, func(_ string, payload any) {
		ev, ok := payload.(ecs.ComponentEvent)
		if !ok {
			return
		}
		if ev.Kind == component.KindTransform || ev.Kind == component.KindCollider {
			w.grid.Remove(ev.Entity)
		}
	})
	w.subscribeInternal(ecs.TopicEntityActivated, func(_ string, payload any) {
		if ev, ok := payload.(ecs.EntityEvent); ok {
			w.syncGrid(ev.Entity)
		}
	})
	w.subscribeInternal(ecs.TopicEntityDeactivated, func(_ string, payload any) {
		if ev, ok := payload.(ecs.EntityEvent); ok {
			w.grid.Remove(ev.Entity)
		}
	})
	w.subscribeInternal(ecs.TopicEntityReaped, func(_ string, payload any) {
		if ev, ok := payload.(ecs.EntityEvent); ok {
			w.grid.Remove(ev.Entity)
		}
	})
}

func (w *World) subscribeInternal(topic string, h event.Handler) {
	w.internalSubs = append(w.internalSubs, w.bus.Subscribe(topic, h))
}

// syncGrid inserts or refreshes the entity's footprint. An entity
// missing either the transform or the collider has no footprint, so a
// half-built entity stays out of the grid until its second add.
func (w *World) syncGrid(id ecs.EntityID) {
	rawT, ok := w.reg.GetComponent(id, component.KindTransform)
	if !ok {
		return
	}
	rawC, ok := w.reg.GetComponent(id, component.KindCollider)
	if !ok {
		return
	}
	tr, okT := rawT.(*component.Transform)
	col, okC := rawC.(*component.Collider)
	if !okT || !okC {
		return
	}
	w.grid.Update(id, col.Bounds(tr))
}

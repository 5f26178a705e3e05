package ecs

import "errors"

// ErrNotPooled is returned by ReturnToPool for entities created outside
// any pool.
var ErrNotPooled = errors.New("entity not pooled")

// pool is a per-key free list of parked slot indices. size is the total
// number of slots ever parked under the key; it never shrinks.
type pool struct {
	free []uint32
	size int
}

// PooledEntity pops a parked entity for key, growing the pool when the
// free list is empty. The entity comes back active with zero components
// and zero tags; a recycled slot keeps the handle it had in its previous
// life, which is what makes pooled spawn churn allocation-free.
func (r *Registry) PooledEntity(key string) EntityID {
	p := r.pools[key]
	if p == nil {
		p = &pool{}
		r.pools[key] = p
	}
	if len(p.free) == 0 {
		r.park(key, p, r.growBatch(p.size))
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	id := r.handles.handleAt(idx)
	r.slots[idx].active = true
	r.bus.Publish(TopicEntityActivated, EntityEvent{Entity: id})
	return id
}

// growBatch is the growth factor applied to the pool's current size,
// floored at one slot so exhaustion is never an error.
func (r *Registry) growBatch(size int) int {
	n := int(float64(size) * r.growth)
	if n < 1 {
		return 1
	}
	return n
}

// park creates n fresh slots under key and leaves them inactive on the
// free list. Parked slots are invisible: no events fire until checkout.
func (r *Registry) park(key string, p *pool, n int) {
	for i := 0; i < n; i++ {
		id := r.handles.create()
		r.ensureSlot(id.Index())
		s := &r.slots[id.Index()]
		s.poolKey = key
		p.free = append(p.free, id.Index())
	}
	p.size += n
}

// Prewarm parks n entities under key ahead of demand, so the first n
// checkouts allocate nothing mid-frame.
func (r *Registry) Prewarm(key string, n int) {
	if n <= 0 {
		return
	}
	p := r.pools[key]
	if p == nil {
		p = &pool{}
		r.pools[key] = p
	}
	r.park(key, p, n)
}

// ReturnToPool deactivates a pooled entity and queues it for the reap,
// which scrubs it and parks the slot back on its free list. Calling it
// again before the reap is a no-op.
func (r *Registry) ReturnToPool(id EntityID) error {
	if !r.handles.alive(id) {
		return ErrInvalidEntity
	}
	if r.slots[id.Index()].poolKey == "" {
		return ErrNotPooled
	}
	return r.SetActive(id, false)
}

// PoolKey returns the pool an entity belongs to, or "" for non-pooled
// entities and stale handles.
func (r *Registry) PoolKey(id EntityID) string {
	if !r.handles.alive(id) {
		return ""
	}
	return r.slots[id.Index()].poolKey
}

// PoolStats reports the parked and total slot counts for key.
func (r *Registry) PoolStats(key string) (free, size int) {
	p := r.pools[key]
	if p == nil {
		return 0, 0
	}
	return len(p.free), p.size
}

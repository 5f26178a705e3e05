package ecs

// EntityID encodes a 32-bit slot index in the lower bits and a 32-bit
// generation in the upper bits. When a non-pooled entity is reaped its
// slot generation increments, so stale handles fail Valid instead of
// aliasing whatever lives there later.
type EntityID uint64

// NewEntityID packs an index and generation into a handle.
func NewEntityID(index, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index portion of the handle.
func (id EntityID) Index() uint32 { return uint32(id) }

// Generation returns the generation portion of the handle.
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }

// handleTable issues slot indices with generational handles. Indices are
// never reissued: a retired slot only bumps its generation so every
// outstanding handle to it goes dead, and the table grows with the
// high-water entity count. Pools recycle their own indices without
// touching the generation, which is how a pooled entity comes back under
// the identical handle.
type handleTable struct {
	generations []uint32
	nextIndex   uint32
}

func newHandleTable() handleTable {
	return handleTable{generations: make([]uint32, 0, 1024)}
}

// create appends a fresh slot and returns its handle.
func (t *handleTable) create() EntityID {
	idx := t.nextIndex
	t.nextIndex++
	t.generations = append(t.generations, 0)
	return NewEntityID(idx, 0)
}

// alive reports whether the handle's generation matches its slot.
func (t *handleTable) alive(id EntityID) bool {
	idx := id.Index()
	return idx < t.nextIndex && t.generations[idx] == id.Generation()
}

// retire invalidates every outstanding handle to the slot.
func (t *handleTable) retire(id EntityID) {
	if t.alive(id) {
		t.generations[id.Index()]++
	}
}

// handleAt rebuilds the current handle for a slot index.
func (t *handleTable) handleAt(idx uint32) EntityID {
	return NewEntityID(idx, t.generations[idx])
}

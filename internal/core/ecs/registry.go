package ecs

import (
	"errors"

	"github.com/rangzgamez/escape-core/internal/core/event"
)

// Kind names a component slot on an entity. The kind space is open:
// collaborators mint kinds by declaring string constants, the registry
// never enumerates them.
type Kind string

// ErrInvalidEntity is returned when a mutating call names a handle that
// was never issued, was reaped, or is inactive where an active entity is
// required. Reads never fail; they return empty results instead.
var ErrInvalidEntity = errors.New("invalid entity")

// slot is the per-entity record. Slots live in a flat slice indexed by
// the handle's index bits and are recycled in place.
type slot struct {
	active     bool
	queued     bool // already on the reap queue
	poolKey    string
	components map[Kind]any
	tags       map[string]struct{}
}

// Registry owns entity slots, their components and tags, the tag index,
// and the pooled free lists. Lifecycle changes publish on the bus given
// at construction. Single-goroutine access only (game loop).
type Registry struct {
	bus       *event.Bus
	handles   handleTable
	slots     []slot
	tagIndex  map[string]map[EntityID]struct{}
	pools     map[string]*pool
	growth    float64
	reapQueue []EntityID
}

const defaultPoolGrowth = 0.25

func NewRegistry(bus *event.Bus) *Registry {
	return &Registry{
		bus:      bus,
		handles:  newHandleTable(),
		slots:    make([]slot, 0, 1024),
		tagIndex: make(map[string]map[EntityID]struct{}),
		pools:    make(map[string]*pool),
		growth:   defaultPoolGrowth,
	}
}

// SetPoolGrowth overrides the exhausted-pool growth factor.
func (r *Registry) SetPoolGrowth(f float64) {
	if f > 0 {
		r.growth = f
	}
}

// CreateEntity allocates a fresh active entity and fires entityCreated.
// Handles are monotonic and never reused; only pooled entities recycle.
func (r *Registry) CreateEntity() EntityID {
	id := r.handles.create()
	r.ensureSlot(id.Index())
	r.slots[id.Index()].active = true
	r.bus.Publish(TopicEntityCreated, EntityEvent{Entity: id})
	return id
}

func (r *Registry) ensureSlot(idx uint32) {
	for uint32(len(r.slots)) <= idx {
		r.slots = append(r.slots, slot{})
	}
}

// Valid reports whether the handle names a live slot.
func (r *Registry) Valid(id EntityID) bool {
	return r.handles.alive(id)
}

// Active reports whether the handle is live and not soft-deleted.
func (r *Registry) Active(id EntityID) bool {
	return r.handles.alive(id) && r.slots[id.Index()].active
}

// AddComponent attaches data under kind, replacing any existing value,
// and fires componentAdded. Requires an active entity.
func (r *Registry) AddComponent(id EntityID, kind Kind, data any) error {
	if !r.Active(id) {
		return ErrInvalidEntity
	}
	s := &r.slots[id.Index()]
	if s.components == nil {
		s.components = make(map[Kind]any, 4)
	}
	s.components[kind] = data
	r.bus.Publish(TopicComponentAdded, ComponentEvent{Entity: id, Kind: kind})
	return nil
}

// GetComponent returns the value stored under kind. The second result is
// false for stale handles and absent kinds. Inactive entities keep their
// components readable until the reap.
func (r *Registry) GetComponent(id EntityID, kind Kind) (any, bool) {
	if !r.handles.alive(id) {
		return nil, false
	}
	v, ok := r.slots[id.Index()].components[kind]
	return v, ok
}

// HasComponent reports whether kind is present on the entity.
func (r *Registry) HasComponent(id EntityID, kind Kind) bool {
	_, ok := r.GetComponent(id, kind)
	return ok
}

// RemoveComponent detaches kind and fires componentRemoved. Removing an
// absent kind is a no-op; only a stale handle is an error.
func (r *Registry) RemoveComponent(id EntityID, kind Kind) error {
	if !r.handles.alive(id) {
		return ErrInvalidEntity
	}
	s := &r.slots[id.Index()]
	if _, ok := s.components[kind]; !ok {
		return nil
	}
	delete(s.components, kind)
	r.bus.Publish(TopicComponentRemoved, ComponentEvent{Entity: id, Kind: kind})
	return nil
}

// AddTag labels the entity and indexes it for EntitiesWithTag.
func (r *Registry) AddTag(id EntityID, tag string) error {
	if !r.Active(id) {
		return ErrInvalidEntity
	}
	s := &r.slots[id.Index()]
	if s.tags == nil {
		s.tags = make(map[string]struct{}, 2)
	}
	if _, ok := s.tags[tag]; ok {
		return nil
	}
	s.tags[tag] = struct{}{}
	set := r.tagIndex[tag]
	if set == nil {
		set = make(map[EntityID]struct{})
		r.tagIndex[tag] = set
	}
	set[id] = struct{}{}
	return nil
}

// RemoveTag drops the label. Absent tags no-op.
func (r *Registry) RemoveTag(id EntityID, tag string) error {
	if !r.handles.alive(id) {
		return ErrInvalidEntity
	}
	s := &r.slots[id.Index()]
	if _, ok := s.tags[tag]; !ok {
		return nil
	}
	delete(s.tags, tag)
	r.dropFromTagIndex(id, tag)
	return nil
}

func (r *Registry) dropFromTagIndex(id EntityID, tag string) {
	set := r.tagIndex[tag]
	if set == nil {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.tagIndex, tag)
	}
}

// HasTag reports whether the entity carries tag.
func (r *Registry) HasTag(id EntityID, tag string) bool {
	if !r.handles.alive(id) {
		return false
	}
	_, ok := r.slots[id.Index()].tags[tag]
	return ok
}

// SetActive toggles the soft-delete flag and fires entityActivated or
// entityDeactivated on an actual change. Deactivation queues the entity
// for the end-of-tick reap; reactivating before the reap runs cancels
// the collection. Systems skip inactive entities.
func (r *Registry) SetActive(id EntityID, active bool) error {
	if !r.handles.alive(id) {
		return ErrInvalidEntity
	}
	s := &r.slots[id.Index()]
	if s.active == active {
		return nil
	}
	s.active = active
	if active {
		r.bus.Publish(TopicEntityActivated, EntityEvent{Entity: id})
		return nil
	}
	if !s.queued {
		s.queued = true
		r.reapQueue = append(r.reapQueue, id)
	}
	r.bus.Publish(TopicEntityDeactivated, EntityEvent{Entity: id})
	return nil
}

// Reap collects every entity still inactive at the time of the call.
// Per entity: entityReaped fires while the components are still
// readable, then the slot is scrubbed; pooled slots go back on their
// free list under the same handle, non-pooled slots retire with a
// generation bump. World.Update calls this once per tick after the
// scheduler pass, never mid-pass, so systems holding handles from this
// frame see them die only between frames. Returns the number reaped.
func (r *Registry) Reap() int {
	n := 0
	for _, id := range r.reapQueue {
		if !r.handles.alive(id) {
			continue
		}
		s := &r.slots[id.Index()]
		if s.active {
			s.queued = false // resurrected before the reap point
			continue
		}
		r.bus.Publish(TopicEntityReaped, EntityEvent{Entity: id})
		s.active = false // entityReaped is a notification, not a veto
		r.scrub(id, s)
		s.queued = false
		if s.poolKey != "" {
			r.pools[s.poolKey].free = append(r.pools[s.poolKey].free, id.Index())
		} else {
			r.handles.retire(id)
		}
		n++
	}
	r.reapQueue = r.reapQueue[:0]
	return n
}

// scrub clears components and tags, dropping the entity from the tag
// index. The pool key survives: it is the slot's identity, not state.
func (r *Registry) scrub(id EntityID, s *slot) {
	for tag := range s.tags {
		r.dropFromTagIndex(id, tag)
	}
	clear(s.tags)
	clear(s.components)
}

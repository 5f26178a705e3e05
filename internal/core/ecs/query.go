package ecs

import "sort"

// EntitiesWith returns the active entities holding every listed kind, in
// slot order. No kinds matches every active entity. The order is
// deterministic for a fixed create/pool/reap history, which keeps system
// passes reproducible within a frame.
func (r *Registry) EntitiesWith(kinds ...Kind) []EntityID {
	var out []EntityID
	for idx := range r.slots {
		s := &r.slots[idx]
		if !s.active {
			continue
		}
		match := true
		for _, k := range kinds {
			if _, ok := s.components[k]; !ok {
				match = false
				break
			}
		}
		if match {
			out = append(out, r.handles.handleAt(uint32(idx)))
		}
	}
	return out
}

// EntitiesWithTag returns the active entities carrying tag, in slot
// order.
func (r *Registry) EntitiesWithTag(tag string) []EntityID {
	set := r.tagIndex[tag]
	if len(set) == 0 {
		return nil
	}
	out := make([]EntityID, 0, len(set))
	for id := range set {
		if r.Active(id) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// EachActive visits every active entity in slot order.
func (r *Registry) EachActive(fn func(EntityID)) {
	for idx := range r.slots {
		if r.slots[idx].active {
			fn(r.handles.handleAt(uint32(idx)))
		}
	}
}

// ComponentKinds returns the kinds present on the entity, sorted.
func (r *Registry) ComponentKinds(id EntityID) []Kind {
	if !r.handles.alive(id) {
		return nil
	}
	comps := r.slots[id.Index()].components
	if len(comps) == 0 {
		return nil
	}
	out := make([]Kind, 0, len(comps))
	for k := range comps {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tags returns the entity's tags, sorted.
func (r *Registry) Tags(id EntityID) []string {
	if !r.handles.alive(id) {
		return nil
	}
	tags := r.slots[id.Index()].tags
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ActiveCount returns the number of active entities.
func (r *Registry) ActiveCount() int {
	n := 0
	for idx := range r.slots {
		if r.slots[idx].active {
			n++
		}
	}
	return n
}

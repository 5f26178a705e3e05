// Package snapshot persists world state as a small versioned document.
//
// The value model is deliberately narrow: nil, bool, float64, string,
// []any, and map[string]any. Component codecs flatten live components
// into that model and rebuild them on load. Kinds without a registered
// codec simply don't persist, so hosts register a KindCodec for every
// kind they want in the save file.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/rangzgamez/escape-core/internal/component"
	"github.com/rangzgamez/escape-core/internal/core/ecs"
)

// Version is the document version this package writes.
const Version = 1

// KindCodec flattens one component kind into the value model and back.
type KindCodec interface {
	Encode(comp any) (any, error)
	Decode(raw any) (any, error)
}

// Codec encodes and decodes whole registries. NewCodec returns one with
// the built-in component kinds registered; the zero value is unusable.
type Codec struct {
	kinds map[ecs.Kind]KindCodec
}

func NewCodec() *Codec {
	c := &Codec{kinds: make(map[ecs.Kind]KindCodec)}
	c.kinds[component.KindTransform] = transformCodec{}
	c.kinds[component.KindCollider] = colliderCodec{}
	c.kinds[component.KindVelocity] = velocityCodec{}
	return c
}

// RegisterKind adds a codec for a host-defined kind.
func (c *Codec) RegisterKind(kind ecs.Kind, kc KindCodec) error {
	if _, ok := c.kinds[kind]; ok {
		return fmt.Errorf("snapshot: kind %q already registered", kind)
	}
	c.kinds[kind] = kc
	return nil
}

// Encode captures every active entity: its tags, its pool membership,
// and each component with a registered codec. Inactive and parked
// entities are not part of a snapshot. Output is deterministic for a
// given registry state.
func (c *Codec) Encode(reg *ecs.Registry) ([]byte, error) {
	entities := []any{}
	var encErr error
	reg.EachActive(func(id ecs.EntityID) {
		if encErr != nil {
			return
		}
		ent, err := c.encodeEntity(reg, id)
		if err != nil {
			encErr = err
			return
		}
		entities = append(entities, ent)
	})
	if encErr != nil {
		return nil, encErr
	}
	return Marshal(map[string]any{
		"version":  Version,
		"entities": entities,
	})
}

func (c *Codec) encodeEntity(reg *ecs.Registry, id ecs.EntityID) (map[string]any, error) {
	ent := map[string]any{}
	if tags := reg.Tags(id); len(tags) > 0 {
		arr := make([]any, len(tags))
		for i, tag := range tags {
			arr[i] = tag
		}
		ent["tags"] = arr
	}
	if key := reg.PoolKey(id); key != "" {
		ent["pool"] = key
	}
	comps := map[string]any{}
	for _, kind := range reg.ComponentKinds(id) {
		kc, ok := c.kinds[kind]
		if !ok {
			continue
		}
		raw, _ := reg.GetComponent(id, kind)
		tree, err := kc.Encode(raw)
		if err != nil {
			return nil, fmt.Errorf("snapshot: entity %d kind %q: %w", id.Index(), kind, err)
		}
		comps[string(kind)] = tree
	}
	ent["components"] = comps
	return ent, nil
}

// Decode loads a snapshot into reg, creating one entity per document
// entry. Pooled entries come back through their pool, so the recycled
// slots behave exactly like live checkouts. The input is parsed in full
// before the first entity is created; a codec failure mid-apply leaves
// reg partially loaded, which is why callers decode into a scratch
// registry and swap on success.
func (c *Codec) Decode(data []byte, reg *ecs.Registry) error {
	parsed, err := Unmarshal(data)
	if err != nil {
		return err
	}
	doc, ok := parsed.(map[string]any)
	if !ok {
		return fmt.Errorf("snapshot: document root is not an object")
	}
	ver, ok := doc["version"].(float64)
	if !ok || ver != Version {
		return fmt.Errorf("snapshot: unsupported version %v", doc["version"])
	}
	rawEntities, ok := doc["entities"].([]any)
	if !ok {
		return fmt.Errorf("snapshot: document has no entities array")
	}
	for i, rawEnt := range rawEntities {
		ent, ok := rawEnt.(map[string]any)
		if !ok {
			return fmt.Errorf("snapshot: entity %d is not an object", i)
		}
		if err := c.decodeEntity(reg, ent); err != nil {
			return fmt.Errorf("snapshot: entity %d: %w", i, err)
		}
	}
	return nil
}

func (c *Codec) decodeEntity(reg *ecs.Registry, ent map[string]any) error {
	var id ecs.EntityID
	if key, ok := ent["pool"].(string); ok && key != "" {
		id = reg.PooledEntity(key)
	} else {
		id = reg.CreateEntity()
	}
	if rawTags, ok := ent["tags"].([]any); ok {
		for _, rt := range rawTags {
			tag, ok := rt.(string)
			if !ok {
				return fmt.Errorf("tag %v is not a string", rt)
			}
			if err := reg.AddTag(id, tag); err != nil {
				return err
			}
		}
	}
	comps, ok := ent["components"].(map[string]any)
	if !ok {
		return nil
	}
	kinds := make([]string, 0, len(comps))
	for k := range comps {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, ks := range kinds {
		kind := ecs.Kind(ks)
		kc, ok := c.kinds[kind]
		if !ok {
			continue
		}
		comp, err := kc.Decode(comps[ks])
		if err != nil {
			return fmt.Errorf("kind %q: %w", kind, err)
		}
		if err := reg.AddComponent(id, kind, comp); err != nil {
			return err
		}
	}
	return nil
}

// fieldReader pulls typed fields out of a decoded object, remembering
// the first type mismatch. Missing fields read as zero values, which
// keeps older snapshots loadable after a component grows a field.
type fieldReader struct {
	m   map[string]any
	err error
}

func (f *fieldReader) num(key string) float64 {
	v, ok := f.m[key]
	if f.err != nil || !ok {
		return 0
	}
	n, ok := v.(float64)
	if !ok {
		f.err = fmt.Errorf("field %q is not a number", key)
		return 0
	}
	return n
}

func (f *fieldReader) str(key string) string {
	v, ok := f.m[key]
	if f.err != nil || !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.err = fmt.Errorf("field %q is not a string", key)
		return ""
	}
	return s
}

func (f *fieldReader) boolean(key string) bool {
	v, ok := f.m[key]
	if f.err != nil || !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		f.err = fmt.Errorf("field %q is not a bool", key)
		return false
	}
	return b
}

func asObject(raw any) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("not an object: %T", raw)
	}
	return m, nil
}

// transformCodec persists position only. Motion history is rebuilt on
// load: a restored entity starts at rest.
type transformCodec struct{}

func (transformCodec) Encode(comp any) (any, error) {
	t, ok := comp.(*component.Transform)
	if !ok {
		return nil, fmt.Errorf("not a transform: %T", comp)
	}
	return map[string]any{"x": t.X, "y": t.Y}, nil
}

func (transformCodec) Decode(raw any) (any, error) {
	m, err := asObject(raw)
	if err != nil {
		return nil, err
	}
	f := &fieldReader{m: m}
	x, y := f.num("x"), f.num("y")
	if f.err != nil {
		return nil, f.err
	}
	return component.NewTransform(x, y), nil
}

type colliderCodec struct{}

func (colliderCodec) Encode(comp any) (any, error) {
	c, ok := comp.(*component.Collider)
	if !ok {
		return nil, fmt.Errorf("not a collider: %T", comp)
	}
	return map[string]any{
		"w":        c.W,
		"h":        c.H,
		"offset_x": c.OffsetX,
		"offset_y": c.OffsetY,
		"layer":    float64(c.Layer),
		"mask":     float64(c.Mask),
		"type":     c.Type,
		"one_way":  c.OneWay,
	}, nil
}

func (colliderCodec) Decode(raw any) (any, error) {
	m, err := asObject(raw)
	if err != nil {
		return nil, err
	}
	f := &fieldReader{m: m}
	col := &component.Collider{
		W:       f.num("w"),
		H:       f.num("h"),
		OffsetX: f.num("offset_x"),
		OffsetY: f.num("offset_y"),
		Layer:   uint32(f.num("layer")),
		Mask:    uint32(f.num("mask")),
		Type:    f.str("type"),
		OneWay:  f.boolean("one_way"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return col, nil
}

type velocityCodec struct{}

func (velocityCodec) Encode(comp any) (any, error) {
	v, ok := comp.(*component.Velocity)
	if !ok {
		return nil, fmt.Errorf("not a velocity: %T", comp)
	}
	return map[string]any{"vx": v.VX, "vy": v.VY}, nil
}

func (velocityCodec) Decode(raw any) (any, error) {
	m, err := asObject(raw)
	if err != nil {
		return nil, err
	}
	f := &fieldReader{m: m}
	v := &component.Velocity{VX: f.num("vx"), VY: f.num("vy")}
	if f.err != nil {
		return nil, f.err
	}
	return v, nil
}

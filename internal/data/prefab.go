package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prefab is a spawnable entity template loaded from YAML or Lua.
type Prefab struct {
	Name     string   `yaml:"name"`
	Pool     string   `yaml:"pool"`      // pooled spawns; empty = plain create
	PoolSize int      `yaml:"pool_size"` // prewarm count for pooled prefabs
	Tags     []string `yaml:"tags"`

	Collider *ColliderDef `yaml:"collider"`
	Velocity *VelocityDef `yaml:"velocity"`

	// Spread jitters the spawn position by up to +-spread on each axis.
	Spread float64 `yaml:"spread"`

	// Components carries free-form component trees keyed by kind name,
	// for kinds the host defines beyond the built-ins.
	Components map[string]any `yaml:"components"`
}

// ColliderDef mirrors the collider component as plain template data.
type ColliderDef struct {
	W       float64 `yaml:"w"`
	H       float64 `yaml:"h"`
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
	Layer   uint32  `yaml:"layer"`
	Mask    uint32  `yaml:"mask"`
	Type    string  `yaml:"type"`
	OneWay  bool    `yaml:"one_way"`
}

type VelocityDef struct {
	VX float64 `yaml:"vx"`
	VY float64 `yaml:"vy"`
}

type prefabListFile struct {
	Prefabs []Prefab `yaml:"prefabs"`
}

// PrefabTable holds all prefabs indexed by name, remembering definition
// order for deterministic iteration.
type PrefabTable struct {
	prefabs map[string]*Prefab
	names   []string
}

func NewPrefabTable() *PrefabTable {
	return &PrefabTable{prefabs: make(map[string]*Prefab)}
}

// Add registers a prefab, normalizing its component trees so every
// number reads back as float64 regardless of the source format.
func (t *PrefabTable) Add(p *Prefab) error {
	if p.Name == "" {
		return fmt.Errorf("prefab with empty name")
	}
	if _, ok := t.prefabs[p.Name]; ok {
		return fmt.Errorf("prefab %q already defined", p.Name)
	}
	for kind, tree := range p.Components {
		p.Components[kind] = normalizeTree(tree)
	}
	t.prefabs[p.Name] = p
	t.names = append(t.names, p.Name)
	return nil
}

// Get returns a prefab by name, or nil if not found.
func (t *PrefabTable) Get(name string) *Prefab {
	return t.prefabs[name]
}

// Count returns the number of registered prefabs.
func (t *PrefabTable) Count() int {
	return len(t.prefabs)
}

// Names returns prefab names in definition order.
func (t *PrefabTable) Names() []string {
	return t.names
}

// LoadPrefabTable loads prefab templates from a YAML file.
func LoadPrefabTable(path string) (*PrefabTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefab_list: %w", err)
	}
	var f prefabListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse prefab_list: %w", err)
	}
	t := NewPrefabTable()
	for i := range f.Prefabs {
		if err := t.Add(&f.Prefabs[i]); err != nil {
			return nil, fmt.Errorf("prefab_list: %w", err)
		}
	}
	return t, nil
}

// normalizeTree maps every integer in a decoded component tree to
// float64, the one number type the snapshot value model carries.
func normalizeTree(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case []any:
		for i, el := range x {
			x[i] = normalizeTree(el)
		}
		return x
	case map[string]any:
		for k, el := range x {
			x[k] = normalizeTree(el)
		}
		return x
	default:
		return v
	}
}

// CloneTree deep-copies a component tree. Spawned entities get their
// own copy so runtime mutation never bleeds back into the template.
func CloneTree(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = CloneTree(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, el := range x {
			out[k] = CloneTree(el)
		}
		return out
	default:
		return v
	}
}

// Package scripting loads Lua-defined prefabs into the data tables.
// Scripts are data factories, not live game logic: each file returns an
// array of prefab rows, the loader converts them, and the VM is done.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/rangzgamez/escape-core/internal/data"
)

// PrefabLoader wraps a single gopher-lua VM for running prefab scripts.
// Single-goroutine access only (load time).
type PrefabLoader struct {
	vm  *lua.LState
	log *zap.Logger
}

func NewPrefabLoader(log *zap.Logger) *PrefabLoader {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &PrefabLoader{vm: vm, log: log}
}

func (l *PrefabLoader) Close() {
	l.vm.Close()
}

// LoadDir runs every .lua file in dir and merges the prefab rows each
// returns into table. Files run in name order. A missing directory is
// not an error; prefab scripts are optional content. Returns the number
// of prefabs added.
func (l *PrefabLoader) LoadDir(dir string, table *data.PrefabTable) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	added := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		n, err := l.loadFile(path, table)
		if err != nil {
			return added, fmt.Errorf("load %s: %w", path, err)
		}
		added += n
		l.log.Debug("loaded prefab script",
			zap.String("file", path),
			zap.Int("prefabs", n),
		)
	}
	return added, nil
}

func (l *PrefabLoader) loadFile(path string, table *data.PrefabTable) (int, error) {
	fn, err := l.vm.LoadFile(path)
	if err != nil {
		return 0, err
	}
	l.vm.Push(fn)
	if err := l.vm.PCall(0, 1, nil); err != nil {
		return 0, err
	}
	ret := l.vm.Get(-1)
	l.vm.Pop(1)

	rows, ok := LuaToGo(ret).([]any)
	if !ok {
		return 0, fmt.Errorf("script must return a list of prefabs")
	}
	for i, row := range rows {
		p, err := prefabFromTree(row)
		if err != nil {
			return 0, fmt.Errorf("prefab %d: %w", i+1, err)
		}
		if err := table.Add(p); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// prefabFromTree shapes one converted Lua row into a prefab. Missing
// fields read as zero values; only the name is mandatory.
func prefabFromTree(v any) (*data.Prefab, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("row is not a table")
	}
	p := &data.Prefab{
		Name:     str(m, "name"),
		Pool:     str(m, "pool"),
		PoolSize: int(num(m, "pool_size")),
		Spread:   num(m, "spread"),
	}
	if p.Name == "" {
		return nil, fmt.Errorf("prefab needs a name")
	}
	if rawTags, ok := m["tags"].([]any); ok {
		for _, rt := range rawTags {
			if s, ok := rt.(string); ok {
				p.Tags = append(p.Tags, s)
			}
		}
	}
	if rawCol, ok := m["collider"].(map[string]any); ok {
		p.Collider = &data.ColliderDef{
			W:       num(rawCol, "w"),
			H:       num(rawCol, "h"),
			OffsetX: num(rawCol, "offset_x"),
			OffsetY: num(rawCol, "offset_y"),
			Layer:   uint32(num(rawCol, "layer")),
			Mask:    uint32(num(rawCol, "mask")),
			Type:    str(rawCol, "type"),
			OneWay:  boolean(rawCol, "one_way"),
		}
	}
	if rawVel, ok := m["velocity"].(map[string]any); ok {
		p.Velocity = &data.VelocityDef{
			VX: num(rawVel, "vx"),
			VY: num(rawVel, "vy"),
		}
	}
	if rawComps, ok := m["components"].(map[string]any); ok {
		p.Components = rawComps
	}
	return p, nil
}

func num(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

package scripting

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/rangzgamez/escape-core/internal/data"
)

func evalLua(t *testing.T, src string) any {
	t.Helper()
	vm := lua.NewState()
	defer vm.Close()
	if err := vm.DoString("return " + src); err != nil {
		t.Fatalf("lua %q: %v", src, err)
	}
	v := LuaToGo(vm.Get(-1))
	vm.Pop(1)
	return v
}

func TestLuaToGoScalars(t *testing.T) {
	if got := evalLua(t, `1.5`); got != 1.5 {
		t.Errorf("number = %#v", got)
	}
	if got := evalLua(t, `"text"`); got != "text" {
		t.Errorf("string = %#v", got)
	}
	if got := evalLua(t, `true`); got != true {
		t.Errorf("bool = %#v", got)
	}
	if got := evalLua(t, `nil`); got != nil {
		t.Errorf("nil = %#v", got)
	}
	if got := evalLua(t, `function() end`); got != nil {
		t.Errorf("function = %#v, want nil", got)
	}
}

func TestLuaToGoDenseTableBecomesSlice(t *testing.T) {
	got := evalLua(t, `{1, 2, 5}`)
	want := []any{float64(1), float64(2), float64(5)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dense table = %#v", got)
	}
}

func TestLuaToGoKeyedTableBecomesMap(t *testing.T) {
	got := evalLua(t, `{name = "spike", hp = 3}`)
	want := map[string]any{"name": "spike", "hp": float64(3)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keyed table = %#v", got)
	}
}

func TestLuaToGoMixedTableBecomesMap(t *testing.T) {
	got := evalLua(t, `{10, 20, name = "x"}`)
	want := map[string]any{"1": float64(10), "2": float64(20), "name": "x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("mixed table = %#v", got)
	}
}

func TestLuaToGoSparseTableBecomesMap(t *testing.T) {
	got := evalLua(t, `{[1] = "a", [3] = "c"}`)
	want := map[string]any{"1": "a", "3": "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sparse table = %#v", got)
	}
}

func TestLuaToGoEmptyTableBecomesMap(t *testing.T) {
	got := evalLua(t, `{}`)
	if !reflect.DeepEqual(got, map[string]any{}) {
		t.Fatalf("empty table = %#v", got)
	}
}

func TestLuaToGoNestedTables(t *testing.T) {
	got := evalLua(t, `{loot = {drops = {1, 2}, rare = false}}`)
	want := map[string]any{
		"loot": map[string]any{
			"drops": []any{float64(1), float64(2)},
			"rare":  false,
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("nested = %#v", got)
	}
}

const spikeScript = `
local prefabs = {}

prefabs[#prefabs + 1] = {
  name = "spike",
  tags = {"hazard"},
  collider = { w = 24, h = 8, layer = 4, type = "spike" },
  components = {
    loot = { drops = {1, 2, 5}, coins = 3 },
  },
}

prefabs[#prefabs + 1] = {
  name = "drifter",
  pool = "drifter",
  pool_size = 4,
  spread = 12,
  collider = { w = 16, h = 16, layer = 1, mask = 6, type = "faller" },
  velocity = { vx = 10, vy = 30 },
}

return prefabs
`

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestLoadDirAddsScriptedPrefabs(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hazards.lua", spikeScript)
	writeScript(t, dir, "notes.txt", "not a script")

	loader := NewPrefabLoader(zap.NewNop())
	defer loader.Close()

	table := data.NewPrefabTable()
	n, err := loader.LoadDir(dir, table)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 2 || table.Count() != 2 {
		t.Fatalf("added %d prefabs, table has %d", n, table.Count())
	}

	spike := table.Get("spike")
	if spike == nil || spike.Collider == nil {
		t.Fatalf("spike = %+v", spike)
	}
	if spike.Collider.W != 24 || spike.Collider.Layer != 4 || spike.Collider.Type != "spike" {
		t.Fatalf("spike collider = %+v", spike.Collider)
	}
	if !reflect.DeepEqual(spike.Tags, []string{"hazard"}) {
		t.Fatalf("spike tags = %v", spike.Tags)
	}
	wantLoot := map[string]any{
		"drops": []any{float64(1), float64(2), float64(5)},
		"coins": float64(3),
	}
	if !reflect.DeepEqual(spike.Components["loot"], wantLoot) {
		t.Fatalf("spike loot = %#v", spike.Components["loot"])
	}

	drifter := table.Get("drifter")
	if drifter.Pool != "drifter" || drifter.PoolSize != 4 || drifter.Spread != 12 {
		t.Fatalf("drifter = %+v", drifter)
	}
	if drifter.Velocity == nil || drifter.Velocity.VX != 10 || drifter.Velocity.VY != 30 {
		t.Fatalf("drifter velocity = %+v", drifter.Velocity)
	}
	if drifter.Collider.Mask != 6 {
		t.Fatalf("drifter collider = %+v", drifter.Collider)
	}
}

func TestLoadDirMissingDirectoryIsEmpty(t *testing.T) {
	loader := NewPrefabLoader(zap.NewNop())
	defer loader.Close()

	n, err := loader.LoadDir(filepath.Join(t.TempDir(), "absent"), data.NewPrefabTable())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 0 {
		t.Fatalf("added %d prefabs from a missing dir", n)
	}
}

func TestLoadDirRejectsBrokenScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `return {{name = `)

	loader := NewPrefabLoader(zap.NewNop())
	defer loader.Close()

	if _, err := loader.LoadDir(dir, data.NewPrefabTable()); err == nil {
		t.Fatalf("broken script accepted")
	}
}

func TestLoadDirRejectsNonListReturn(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "scalar.lua", `return 42`)

	loader := NewPrefabLoader(zap.NewNop())
	defer loader.Close()

	if _, err := loader.LoadDir(dir, data.NewPrefabTable()); err == nil {
		t.Fatalf("scalar return accepted")
	}
}

func TestLoadDirRejectsNamelessPrefab(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "nameless.lua", `return {{pool = "x"}}`)

	loader := NewPrefabLoader(zap.NewNop())
	defer loader.Close()

	if _, err := loader.LoadDir(dir, data.NewPrefabTable()); err == nil {
		t.Fatalf("nameless prefab accepted")
	}
}

func TestLoadDirDetectsDuplicateAcrossSources(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "dup.lua", `return {{name = "platform"}}`)

	table := data.NewPrefabTable()
	if err := table.Add(&data.Prefab{Name: "platform"}); err != nil {
		t.Fatalf("seed table: %v", err)
	}

	loader := NewPrefabLoader(zap.NewNop())
	defer loader.Close()

	if _, err := loader.LoadDir(dir, table); err == nil {
		t.Fatalf("duplicate across sources accepted")
	}
}

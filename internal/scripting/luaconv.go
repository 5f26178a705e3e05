package scripting

import (
	"math"

	lua "github.com/yuin/gopher-lua"
)

// LuaToGo converts a Lua value into the snapshot value model: nil,
// bool, float64, string, []any, map[string]any. Functions, userdata,
// and the like convert to nil since no data form can hold them.
func LuaToGo(lv lua.LValue) any {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return tableToGo(v)
	default:
		return nil
	}
}

// tableToGo maps a table with keys 1..n to a slice and everything else
// to a string-keyed map. An empty table has no keys to judge by and
// comes back as an empty map.
func tableToGo(t *lua.LTable) any {
	n := 0
	dense := true
	t.ForEach(func(k, _ lua.LValue) {
		n++
		num, ok := k.(lua.LNumber)
		if !ok || float64(num) != math.Trunc(float64(num)) {
			dense = false
		}
	})
	if n == 0 {
		return map[string]any{}
	}
	if dense {
		arr := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			v := t.RawGetInt(i)
			if v == lua.LNil {
				dense = false
				break
			}
			arr = append(arr, LuaToGo(v))
		}
		if dense {
			return arr
		}
	}
	m := make(map[string]any, n)
	t.ForEach(func(k, v lua.LValue) {
		m[lua.LVAsString(k)] = LuaToGo(v)
	})
	return m
}

package loader

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	lua "github.com/yuin/gopher-lua"
)

// luaGlobal is the table a Lua config may assign instead of returning one.
const luaGlobal = "env"

// safeLibs are the only standard libraries a config script gets.
var safeLibs = []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath}

// unsafeGlobals are the base library entries that load code or reach the
// package system.
var unsafeGlobals = []string{"module", "require", "dofile", "loadfile", "load", "loadstring", "os", "io", "debug", "package"}

func newSandboxedVM() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range safeLibs {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(open), NRet: 0, Protect: true}); err != nil {
			L.Close()
			return nil, err
		}
	}
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L, nil
}

// decodeLua runs a config script and decodes the table it returns, or the
// global env table when it returns nothing.
func decodeLua(ctx context.Context, source string) (Document, error) {
	L, err := newSandboxedVM()
	if err != nil {
		return Document{}, &ParseError{Message: "Lua runtime error", Detail: err.Error()}
	}
	defer L.Close()
	if ctx != nil {
		L.SetContext(ctx)
	}

	fn, err := L.LoadString(source)
	if err != nil {
		return Document{}, &ParseError{Message: "Lua syntax error", Detail: err.Error()}
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return Document{}, &ParseError{Message: "Lua runtime error", Detail: err.Error()}
	}
	ret := L.Get(-1)
	L.Pop(1)

	if ret.Type() != lua.LTTable {
		ret = L.GetGlobal(luaGlobal)
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return Document{}, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobal),
			Detail:  fmt.Sprintf("expected table, got %s", ret.Type()),
		}
	}

	data, err := json.Marshal(luaToGo(tbl))
	if err != nil {
		return Document{}, &ParseError{Message: "unsupported Lua value", Detail: err.Error()}
	}
	return decodeJSON(data)
}

// luaToGo converts a Lua value into plain Go data. Tables with a sequence
// part become slices; other tables become string-keyed maps. Functions and
// userdata are dropped.
func luaToGo(v lua.LValue) any {
	switch t := v.(type) {
	case lua.LString:
		return string(t)
	case lua.LNumber:
		return float64(t)
	case lua.LBool:
		return bool(t)
	case *lua.LTable:
		if n := t.MaxN(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, luaToGo(t.RawGetInt(i)))
			}
			return out
		}
		out := map[string]any{}
		t.ForEach(func(k, val lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				if conv := luaToGo(val); conv != nil {
					out[string(ks)] = conv
				}
			}
		})
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

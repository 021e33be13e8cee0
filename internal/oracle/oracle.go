// Package oracle adapts the external meld-legality evaluator. Grounded
// on original_source/src/game/lua_manager.rs: the original embeds an
// mlua::Lua VM, loads every *.lua file under a scripts directory at
// startup, and resolves a single preloaded global function
// "check_calls". This adapter does the same with gopher-lua, the
// idiomatic Go analogue. The rest of the core only ever sees Flags; no
// other package names the Lua VM.
package oracle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"mahjongcore/internal/cache"
	"mahjongcore/internal/gameerr"
	"mahjongcore/internal/tile"
)

// Flags is the per-seat callability verdict for one discard.
type Flags struct {
	Chi bool
	Pon bool
	Kan bool
	Ron bool
}

// Evaluator checks call legality for a (hand, discard, offset) triple.
// offset is the seat distance from the discarder, counted in the fixed
// rotation (1 = next to act); only offset==1 may legally carry Chi.
type Evaluator interface {
	CheckCalls(hand []tile.Tile, discard tile.Tile, offset int) (Flags, error)

	// CheckTsumo reports whether hand (the caller's own 14 tiles, just
	// after drawing) is a complete winning shape, for Action.Tsumo per
	// spec.md §4.4 line 163.
	CheckTsumo(hand []tile.Tile) (bool, error)
}

// LuaOracle is the only component in the core that names the Lua VM.
type LuaOracle struct {
	mu        sync.Mutex
	state     *lua.LState
	checkFn   *lua.LFunction
	responses *cache.Cache // optional memoization, may be nil
}

// New loads every *.lua file from scriptsDir and resolves the global
// check_calls function. cache may be nil to disable memoization.
func New(scriptsDir string, responses *cache.Cache) (*LuaOracle, error) {
	l := lua.NewState()

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		return nil, gameerr.New(gameerr.InitializationFailed, 0)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		if err := l.DoFile(filepath.Join(scriptsDir, e.Name())); err != nil {
			l.Close()
			return nil, fmt.Errorf("load oracle script %s: %w", e.Name(), err)
		}
	}

	fn, ok := l.GetGlobal("check_calls").(*lua.LFunction)
	if !ok {
		l.Close()
		return nil, gameerr.New(gameerr.InitializationFailed, 0)
	}

	return &LuaOracle{state: l, checkFn: fn, responses: responses}, nil
}

// Close releases the Lua VM.
func (o *LuaOracle) Close() { o.state.Close() }

// CheckCalls marshals the view into a neutral Lua table, invokes
// check_calls, and unmarshals the four boolean flags. Any marshalling
// or evaluation failure degrades to "no calls possible" for the caller
// to log and continue, per spec.md §7.
func (o *LuaOracle) CheckCalls(hand []tile.Tile, discard tile.Tile, offset int) (Flags, error) {
	key := signature(hand, discard, offset)
	if o.responses != nil {
		if v, ok := o.responses.Get(key); ok {
			if flags, ok := v.(Flags); ok {
				return flags, nil
			}
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	handTable := o.state.NewTable()
	for i, t := range hand {
		handTable.RawSetInt(i+1, lua.LNumber(int(t.Kind)))
	}
	argTable := o.state.NewTable()
	argTable.RawSetString("hand", handTable)
	argTable.RawSetString("discard", lua.LNumber(int(discard.Kind)))
	argTable.RawSetString("offset", lua.LNumber(offset))

	if err := o.state.CallByParam(lua.P{
		Fn:      o.checkFn,
		NRet:    1,
		Protect: true,
	}, argTable); err != nil {
		return Flags{}, gameerr.New(gameerr.InternalError, 0)
	}
	defer o.state.Pop(1)

	result, ok := o.state.Get(-1).(*lua.LTable)
	if !ok {
		return Flags{}, gameerr.New(gameerr.InternalError, 0)
	}

	flags := Flags{
		Chi: lua.LVAsBool(result.RawGetString("chi")),
		Pon: lua.LVAsBool(result.RawGetString("pon")),
		Kan: lua.LVAsBool(result.RawGetString("kan")),
		Ron: lua.LVAsBool(result.RawGetString("ron")),
	}

	if o.responses != nil {
		o.responses.Set(key, flags)
	}
	return flags, nil
}

// CheckTsumo reuses the same check_calls global as CheckCalls, under
// the self-draw convention: offset 0 with hand holding all 14 tiles
// and the discard field unused. The script's ron output then means
// "hand is complete", which is exactly what a self-draw win needs.
func (o *LuaOracle) CheckTsumo(hand []tile.Tile) (bool, error) {
	flags, err := o.CheckCalls(hand, tile.Tile{}, 0)
	if err != nil {
		return false, err
	}
	return flags.Ron, nil
}

// signature builds a stable cache key: the oracle's verdict depends
// only on the sorted hand shape, not seat identity.
func signature(hand []tile.Tile, discard tile.Tile, offset int) string {
	codes := make([]int, len(hand))
	for i, t := range hand {
		codes[i] = int(t.Kind)
	}
	sort.Ints(codes)
	var b strings.Builder
	for _, c := range codes {
		b.WriteString(strconv.Itoa(c))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(int(discard.Kind)))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(offset))
	return b.String()
}

// Package script provides Lua automation over the grid.
//
// Scripts run in a sandboxed gopher-lua state with only the base,
// table, string and math libraries opened. A "grid" module exposes read
// and edit operations; grid errors surface as Lua errors and abort the
// script. Execution is bounded by a best-effort timeout.
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe. A Runner must
// be used from a single goroutine.
package script

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/grid/merge"
)

// DefaultTimeout bounds a single script execution.
const DefaultTimeout = 5 * time.Second

// Runner executes Lua scripts against a table.
type Runner struct {
	state   *lua.LState
	table   *grid.Table
	manager *merge.Manager
	timeout time.Duration
	closed  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the per-execution timeout.
// NOTE: best-effort; Lua code that never yields to Go cannot be
// interrupted mid-instruction.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRunner creates a sandboxed runner bound to the given table and
// merge manager.
func NewRunner(table *grid.Table, manager *merge.Manager, opts ...Option) (*Runner, error) {
	r := &Runner{
		table:   table,
		manager: manager,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	// Selective stdlib: no io, no os.
	for _, open := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(open.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(open.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("open lua lib %s: %w", open.name, err)
		}
	}

	r.state = L
	r.registerGridModule()
	return r, nil
}

// SetTable rebinds the runner after a table replacement.
func (r *Runner) SetTable(table *grid.Table) {
	r.table = table
	r.manager.SetTable(table)
}

// Run executes the given Lua source.
func (r *Runner) Run(src string) error {
	if r.closed {
		return ErrRunnerClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.state.SetContext(ctx)
	defer r.state.RemoveContext()

	if err := r.state.DoString(src); err != nil {
		return fmt.Errorf("%w: %v", ErrScriptFailed, err)
	}
	return nil
}

// RunFile executes the Lua source at the given path.
func (r *Runner) RunFile(path string) error {
	if r.closed {
		return ErrRunnerClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.state.SetContext(ctx)
	defer r.state.RemoveContext()

	if err := r.state.DoFile(path); err != nil {
		return fmt.Errorf("%w: %v", ErrScriptFailed, err)
	}
	return nil
}

// Close releases the Lua state. Safe to call more than once.
func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.state.Close()
}

// registerGridModule installs the "grid" table into the Lua globals.
func (r *Runner) registerGridModule() {
	L := r.state
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"rows":    r.luaRows,
		"cols":    r.luaCols,
		"get":     r.luaGet,
		"set":     r.luaSet,
		"check":   r.luaCheck,
		"checked": r.luaChecked,
		"blocked": r.luaBlocked,
		"merge":   r.luaMerge,
		"unmerge": r.luaUnmerge,
		"stats":   r.luaStats,
	})
	L.SetGlobal("grid", mod)
}

func (r *Runner) luaRows(L *lua.LState) int {
	L.Push(lua.LNumber(r.table.Rows()))
	return 1
}

func (r *Runner) luaCols(L *lua.LState) int {
	L.Push(lua.LNumber(r.table.Cols()))
	return 1
}

func (r *Runner) luaGet(L *lua.LState) int {
	cell := r.cellArg(L, 1)
	L.Push(lua.LString(cell.Value))
	return 1
}

func (r *Runner) luaSet(L *lua.LState) int {
	row, col := L.CheckInt(1), L.CheckInt(2)
	value := L.CheckString(3)
	if err := r.table.SetValue(row, col, value); err != nil {
		L.RaiseError("grid.set(%d,%d): %v", row, col, err)
	}
	return 0
}

func (r *Runner) luaCheck(L *lua.LState) int {
	row, col := L.CheckInt(1), L.CheckInt(2)
	if err := r.table.ToggleChecked(row, col); err != nil {
		L.RaiseError("grid.check(%d,%d): %v", row, col, err)
	}
	cell, err := r.table.Cell(row, col)
	if err != nil {
		L.RaiseError("grid.check(%d,%d): %v", row, col, err)
	}
	L.Push(lua.LBool(cell.Checked))
	return 1
}

func (r *Runner) luaChecked(L *lua.LState) int {
	cell := r.cellArg(L, 1)
	L.Push(lua.LBool(cell.Checked))
	return 1
}

func (r *Runner) luaBlocked(L *lua.LState) int {
	cell := r.cellArg(L, 1)
	L.Push(lua.LBool(cell.Blocked))
	return 1
}

func (r *Runner) luaMerge(L *lua.LState) int {
	r1, c1 := L.CheckInt(1), L.CheckInt(2)
	r2, c2 := L.CheckInt(3), L.CheckInt(4)

	var sel []grid.CellID
	for row := min(r1, r2); row <= max(r1, r2); row++ {
		for col := min(c1, c2); col <= max(c1, c2); col++ {
			sel = append(sel, grid.CellID{Row: row, Col: col})
		}
	}

	anchor, err := r.manager.Merge(sel)
	if err != nil {
		L.RaiseError("grid.merge(%d,%d,%d,%d): %v", r1, c1, r2, c2, err)
	}
	L.Push(lua.LNumber(anchor.Row))
	L.Push(lua.LNumber(anchor.Col))
	return 2
}

func (r *Runner) luaUnmerge(L *lua.LState) int {
	row, col := L.CheckInt(1), L.CheckInt(2)
	if err := r.manager.Unmerge(grid.CellID{Row: row, Col: col}); err != nil {
		L.RaiseError("grid.unmerge(%d,%d): %v", row, col, err)
	}
	return 0
}

func (r *Runner) luaStats(L *lua.LState) int {
	s := r.table.Statistics()
	tbl := L.NewTable()
	L.SetField(tbl, "total", lua.LNumber(s.TotalCells))
	L.SetField(tbl, "blocked", lua.LNumber(s.BlockedCells))
	L.SetField(tbl, "merged", lua.LNumber(s.MergedVisible))
	L.Push(tbl)
	return 1
}

// cellArg resolves the (row, col) arguments starting at stack index n.
func (r *Runner) cellArg(L *lua.LState, n int) *grid.Cell {
	row, col := L.CheckInt(n), L.CheckInt(n+1)
	cell, err := r.table.Cell(row, col)
	if err != nil {
		L.RaiseError("grid cell (%d,%d): %v", row, col, err)
	}
	return cell
}

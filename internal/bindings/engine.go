// Package bindings runs user key-binding scripts in a sandboxed Lua
// state. A script calls bind("Ctrl+s", handler) to attach a Lua function
// to a key chord; the handler returns true to consume the event.
package bindings

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/termflux/internal/dispatch"
	"github.com/dshills/termflux/internal/input/key"
)

// Engine owns one Lua state and the registry bindings its scripts have
// made.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes every
// script execution and every handler invocation.
type Engine struct {
	mu sync.Mutex

	state  *lua.LState
	keys   *dispatch.KeyboardRegistry
	logger *zap.Logger

	removes []func()
	closed  bool
}

// NewEngine creates a sandboxed engine bound to the keyboard registry.
func NewEngine(keys *dispatch.KeyboardRegistry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	e := &Engine{
		state:  L,
		keys:   keys,
		logger: logger,
	}
	L.SetGlobal("bind", L.NewFunction(e.luaBind))
	return e
}

// openSafeLibraries opens base, table, string and math. io, os, debug
// and package stay closed; binding scripts get no system access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// DoString executes a binding script from source.
func (e *Engine) DoString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("bindings: engine closed")
	}
	if err := e.state.DoString(src); err != nil {
		return fmt.Errorf("bindings: %w", err)
	}
	return nil
}

// DoFile executes a binding script from a file.
func (e *Engine) DoFile(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("bindings: engine closed")
	}
	if err := e.state.DoFile(path); err != nil {
		return fmt.Errorf("bindings: %s: %w", path, err)
	}
	return nil
}

// luaBind implements the bind(spec, fn) global. The Lua handler is
// called with the event's chord string and returns a truthy value to
// consume the event.
func (e *Engine) luaBind(L *lua.LState) int {
	spec := L.CheckString(1)
	fn := L.CheckFunction(2)

	remove, err := e.keys.Bind(spec, func(ev key.Event) bool {
		return e.invoke(fn, ev)
	})
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	e.removes = append(e.removes, remove)
	return 0
}

// invoke calls a Lua handler for one event. Script errors are logged
// and treated as not-consumed.
func (e *Engine) invoke(fn *lua.LFunction, ev key.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}

	L := e.state
	err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(ev.Chord()))
	if err != nil {
		e.logger.Error("key binding script failed",
			zap.String("key", ev.Chord()),
			zap.Error(err))
		return false
	}

	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret)
}

// BindingCount returns how many chord bindings the engine's scripts
// have registered.
func (e *Engine) BindingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.removes)
}

// Close removes every binding the scripts made and shuts the Lua state
// down. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, remove := range e.removes {
		remove()
	}
	e.removes = nil
	e.state.Close()
}

package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable game formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// Core formulas first; rules/ may override them.
	for _, sub := range []string{"core", "rules"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a global Lua function with the given name is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// MassLossParams are the rule constants passed to calc_mass_loss.
type MassLossParams struct {
	Rate        float64 // per mille per balance tick
	DefaultMass float64
	MinMassLoss float64
}

// MassLoss returns a mass-loss rule backed by the Lua calc_mass_loss
// function. When the function is missing, errors or returns a non-number,
// fallback is used for that call.
func (e *Engine) MassLoss(p MassLossParams, fallback func(cellMass, massTotal float64) float64) func(cellMass, massTotal float64) float64 {
	if !e.Has("calc_mass_loss") {
		e.log.Warn("lua function calc_mass_loss not found, using built-in rule")
		return fallback
	}
	return func(cellMass, massTotal float64) float64 {
		fn := e.vm.GetGlobal("calc_mass_loss")

		t := e.vm.NewTable()
		t.RawSetString("cell_mass", lua.LNumber(cellMass))
		t.RawSetString("mass_total", lua.LNumber(massTotal))
		t.RawSetString("rate", lua.LNumber(p.Rate))
		t.RawSetString("default_mass", lua.LNumber(p.DefaultMass))
		t.RawSetString("min_mass_loss", lua.LNumber(p.MinMassLoss))

		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, t); err != nil {
			e.log.Error("lua calc_mass_loss error", zap.Error(err))
			return fallback(cellMass, massTotal)
		}

		result := e.vm.Get(-1)
		e.vm.Pop(1)

		n, ok := result.(lua.LNumber)
		if !ok {
			e.log.Error("lua calc_mass_loss returned non-number", zap.String("type", result.Type().String()))
			return fallback(cellMass, massTotal)
		}
		// Never let a script grow a cell or shrink it below the default mass.
		loss := float64(n)
		if limit := cellMass - p.DefaultMass; loss > limit {
			loss = limit
		}
		if loss < 0 || math.IsNaN(loss) {
			return 0
		}
		return loss
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

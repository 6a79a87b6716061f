package host

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/grain-runtime/errors"
)

// InitExport is the function each compiled module exports to run its
// top-level code.
const InitExport = "_init"

// ModuleInfo names a compiled module and the modules it imports.
type ModuleInfo struct {
	Name    string
	Imports []string
}

// InitOrder computes the order init functions run in: topological by
// imports, ties broken by name so the order is stable. Pervasives has no
// imports and therefore always initializes before its importers.
func InitOrder(mods []ModuleInfo) ([]string, error) {
	byName := make(map[string]ModuleInfo, len(mods))
	for _, m := range mods {
		if _, dup := byName[m.Name]; dup {
			return nil, errors.InvalidArgument(errors.PhaseHost, "duplicate module %q", m.Name)
		}
		byName[m.Name] = m
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(mods))
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return errors.InvalidArgument(errors.PhaseHost, "import cycle through %q", name)
		}
		m, ok := byName[name]
		if !ok {
			return errors.NotFound(errors.PhaseHost, "module %q imported but not provided", name)
		}
		state[name] = visiting
		deps := append([]string(nil), m.Imports...)
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	names := make([]string, 0, len(mods))
	for _, m := range mods {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// RunInit invokes each module's init export in the given order. Modules
// without the export are skipped; compiled modules always carry it, but
// hand-written test modules may not.
func RunInit(ctx context.Context, instances map[string]api.Module, order []string) error {
	for _, name := range order {
		mod, ok := instances[name]
		if !ok {
			return errors.NotFound(errors.PhaseHost, "module %q not instantiated", name)
		}
		fn := mod.ExportedFunction(InitExport)
		if fn == nil {
			continue
		}
		if _, err := fn.Call(ctx); err != nil {
			return errors.New(errors.PhaseHost, errors.KindFailure).
				Detail("init of module %q failed", name).Cause(err).Build()
		}
	}
	return nil
}

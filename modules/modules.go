package modules

import (
	"fmt"
	"log/slog"
	"sort"

	"lndpd/pndp"
)

var ModuleList []*Module

// Options are handed to a backend when it is created
type Options struct {
	Logger *slog.Logger
}

type Factory func(opts Options) (pndp.Installer, error)

// Module is an installation backend that turns an InstallRequest into a proxy neighbor entry
type Module struct {
	Name        string
	Description string
	New         Factory
}

// RegisterModule makes a backend available by name. Backends call it from init.
func RegisterModule(name string, description string, factory Factory) {
	if _, ok := Lookup(name); ok {
		panic("modules: backend registered twice: " + name)
	}
	ModuleList = append(ModuleList, &Module{
		Name:        name,
		Description: description,
		New:         factory,
	})
}

func Lookup(name string) (*Module, bool) {
	for _, m := range ModuleList {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Names returns the registered backend names, sorted
func Names() []string {
	names := make([]string, 0, len(ModuleList))
	for _, m := range ModuleList {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// NewInstaller creates the backend called name.
// An unknown name is reported as *pndp.ConfigError.
func NewInstaller(name string, opts Options) (pndp.Installer, error) {
	m, ok := Lookup(name)
	if !ok {
		return nil, &pndp.ConfigError{Field: "backend", Value: name, Err: fmt.Errorf("unknown backend, available: %v", Names())}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return m.New(opts)
}

package modules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lndpd/pndp"
)

func withModules(t *testing.T) {
	saved := ModuleList
	ModuleList = nil
	t.Cleanup(func() { ModuleList = saved })
}

func nopFactory(Options) (pndp.Installer, error) {
	return pndp.InstallerFunc(func(context.Context, pndp.InstallRequest) error { return nil }), nil
}

func TestRegisterModule(t *testing.T) {
	withModules(t)
	RegisterModule("zeta", "last", nopFactory)
	RegisterModule("alpha", "first", nopFactory)

	assert.Equal(t, []string{"alpha", "zeta"}, Names())
	m, ok := Lookup("zeta")
	require.True(t, ok)
	assert.Equal(t, "last", m.Description)

	_, ok = Lookup("missing")
	assert.False(t, ok)

	assert.Panics(t, func() { RegisterModule("alpha", "again", nopFactory) })
}

func TestNewInstaller(t *testing.T) {
	withModules(t)
	var got Options
	RegisterModule("capture", "", func(opts Options) (pndp.Installer, error) {
		got = opts
		return nopFactory(opts)
	})
	RegisterModule("broken", "", func(Options) (pndp.Installer, error) {
		return nil, errors.New("unavailable")
	})

	inst, err := NewInstaller("capture", Options{})
	require.NoError(t, err)
	assert.NotNil(t, inst)
	// A logger is always handed to the backend
	assert.NotNil(t, got.Logger)

	_, err = NewInstaller("broken", Options{})
	assert.EqualError(t, err, "unavailable")

	_, err = NewInstaller("nope", Options{})
	var configErr *pndp.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "backend", configErr.Field)
	assert.Equal(t, "nope", configErr.Value)
}

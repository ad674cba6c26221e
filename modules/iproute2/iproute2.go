// Package iproute2 installs proxy neighbor entries by running the ip(8) utility
package iproute2

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"lndpd/modules"
	"lndpd/pndp"
)

const Name = "iproute2"

func init() {
	modules.RegisterModule(Name, "Run \"ip -6 neigh add proxy <addr> dev <iface>\"", func(opts modules.Options) (pndp.Installer, error) {
		path, err := exec.LookPath("ip")
		if err != nil {
			return nil, &pndp.ConfigError{Field: "backend", Value: Name, Err: err}
		}
		return New(path), nil
	})
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

type Installer struct {
	path string
	run  runFunc
}

func New(path string) *Installer {
	return &Installer{path: path, run: combinedOutput}
}

// command pins the C locale, Install matches on the untranslated error text
func command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	return cmd
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return command(ctx, name, args...).CombinedOutput()
}

func (i *Installer) Install(ctx context.Context, req pndp.InstallRequest) error {
	out, err := i.run(ctx, i.path, "-6", "neigh", "add", "proxy", req.Address.String(), "dev", req.Interface)
	if err == nil {
		return nil
	}
	// The entry is already there
	if bytes.Contains(out, []byte("File exists")) {
		return nil
	}
	return fmt.Errorf("%s: %w: %s", i.path, err, bytes.TrimSpace(out))
}

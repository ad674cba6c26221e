package dryrun

import (
	"context"
	"log/slog"

	"lndpd/modules"
	"lndpd/pndp"
)

const Name = "dryrun"

func init() {
	modules.RegisterModule(Name, "Only log the proxy neighbor entries that would be installed", func(opts modules.Options) (pndp.Installer, error) {
		return New(opts.Logger), nil
	})
}

type Installer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Installer {
	return &Installer{logger: logger}
}

func (i *Installer) Install(_ context.Context, req pndp.InstallRequest) error {
	i.logger.Info("Would install proxy neighbor", "ip", req.Address, "dev", req.Interface)
	return nil
}

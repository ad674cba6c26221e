package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"lndpd/modules"
	"lndpd/modules/dryrun"
	"lndpd/pndp"
)

// flagKeys maps config keys to the command line flags that override them
var flagKeys = map[string]string{
	"prefix":          "prefix",
	"backend":         "backend",
	"queue_size":      "queue-size",
	"read_timeout":    "read-timeout",
	"promiscuous":     "promiscuous",
	"ignore_outgoing": "ignore-outgoing",
	"log.level":       "log-level",
	"log.format":      "log-format",
	"log.file":        "log-file",
}

func addProxyFlags(cmd *cobra.Command, backend string) {
	cmd.Flags().StringSliceP("prefix", "p", nil, "IPv6 prefix to proxy, e.g. 2001:db8::/32 (repeatable)")
	cmd.Flags().String("backend", backend, "proxy neighbor installation backend")
	cmd.Flags().Int("queue-size", 0, "queue installs to a background worker; 0 installs synchronously")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// configFromCommand loads the configuration for cmd. Positional args are assigned to keys in order.
// A command can change a default through its "default.<key>" annotations.
func configFromCommand(cmd *cobra.Command, args []string, keys ...string) (*Config, error) {
	v := viper.New()
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	for i, arg := range args {
		if i < len(keys) {
			v.Set(keys[i], arg)
		}
	}
	path, _ := cmd.Flags().GetString("config")

	overrides := make(map[string]any)
	for name, value := range cmd.Annotations {
		if key, ok := strings.CutPrefix(name, "default."); ok {
			overrides[key] = value
		}
	}

	cfg, err := loadConfig(v, path, overrides)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func runLive(ctx context.Context, cfg *Config, stderr io.Writer) error {
	logger, closer, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Fail before touching the capture socket
	if err := pndp.CheckInterfaces(cfg.Interface, cfg.BroadcastInterface); err != nil {
		return err
	}
	src, err := pndp.OpenInterface(cfg.Interface, cfg.captureOptions())
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, stop := signalContext(ctx)
	defer stop()
	return runProxy(ctx, cfg, cfg.Interface, src, logger)
}

// replayInterface labels the capture side of a replay in the proxy's logs
const replayInterface = "replay"

func runReplay(ctx context.Context, cfg *Config, stderr io.Writer) error {
	logger, closer, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.Backend != dryrun.Name {
		if err := pndp.CheckInterfaces(cfg.BroadcastInterface); err != nil {
			return err
		}
	}
	src, err := pndp.OpenCaptureFile(cfg.CaptureFile)
	if err != nil {
		return err
	}
	defer src.Close()
	logger.Info("Replaying capture file", "path", cfg.CaptureFile)

	ctx, stop := signalContext(ctx)
	defer stop()
	return runProxy(ctx, cfg, replayInterface, src, logger)
}

// runProxy runs the capture loop over src, named iface in the logs, until it ends. With a
// queue configured the installs happen on a second goroutine, which drains the queue before returning.
func runProxy(ctx context.Context, cfg *Config, iface string, src pndp.Source, logger *slog.Logger) error {
	installer, err := modules.NewInstaller(cfg.Backend, modules.Options{Logger: logger})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var queue *pndp.QueuedInstaller
	if cfg.QueueSize > 0 {
		queue = pndp.NewQueuedInstaller(installer, cfg.QueueSize, logger)
		installer = queue
		// Queued installs still complete after shutdown has begun
		workerCtx := context.WithoutCancel(ctx)
		g.Go(func() error { return queue.Run(workerCtx) })
	}

	proxy := pndp.NewProxy(pndp.ProxyConfig{
		Interface:          iface,
		BroadcastInterface: cfg.BroadcastInterface,
		Prefixes:           cfg.PrefixSet(),
		Logger:             logger,
	}, src, installer)

	g.Go(func() error {
		if queue != nil {
			defer queue.Close()
		}
		return proxy.Run(gctx)
	})

	err = g.Wait()
	stats := proxy.Stats()
	logger.Info("Capture statistics",
		"frames", stats.Frames,
		"dropped", stats.Dropped,
		"ignored", stats.Ignored,
		"matched", stats.Matched,
		"installed", stats.Installed,
		"install_failures", stats.InstallFailures,
	)
	return err
}

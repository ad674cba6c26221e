package pndp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
)

// State of a capture loop
type State int32

const (
	StateRunning State = iota
	// StateFrameError is held while a dropped frame is being reported. The loop returns to StateRunning.
	StateFrameError
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFrameError:
		return "frame-error"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// ProxyConfig is fixed for the lifetime of a Proxy
type ProxyConfig struct {
	// Interface is the capture interface, used for logging only
	Interface string
	// BroadcastInterface receives the proxy neighbor entries
	BroadcastInterface string
	Prefixes           PrefixSet
	Logger             *slog.Logger
}

// Stats are the counters of a capture loop
type Stats struct {
	Frames          uint64
	Timeouts        uint64
	Dropped         uint64
	Ignored         uint64
	Matched         uint64
	Installed       uint64
	InstallFailures uint64
}

type counters struct {
	frames, timeouts, dropped, ignored, matched, installed, installFailures atomic.Uint64
}

// Proxy reads frames from a Source and installs a proxy neighbor on the broadcast
// interface for every IPv6 source address inside the configured prefixes.
type Proxy struct {
	cfg       ProxyConfig
	source    Source
	installer Installer
	logger    *slog.Logger
	state     atomic.Int32
	stats     counters
}

// NewProxy
//
// src - where frames come from. The Proxy does not close it.
//
// inst - called synchronously for every matching frame. Wrap it in a QueuedInstaller to decouple.
//
// Run() must be called to actually start proxying
func NewProxy(cfg ProxyConfig, src Source, inst Installer) *Proxy {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Proxy{
		cfg:       cfg,
		source:    src,
		installer: inst,
		logger:    logger.With("interface", cfg.Interface, "broadcast_interface", cfg.BroadcastInterface),
	}
}

func (p *Proxy) State() State { return State(p.state.Load()) }

func (p *Proxy) Stats() Stats {
	return Stats{
		Frames:          p.stats.frames.Load(),
		Timeouts:        p.stats.timeouts.Load(),
		Dropped:         p.stats.dropped.Load(),
		Ignored:         p.stats.ignored.Load(),
		Matched:         p.stats.matched.Load(),
		Installed:       p.stats.installed.Load(),
		InstallFailures: p.stats.installFailures.Load(),
	}
}

// Run processes frames until the source is exhausted, fails, or ctx is cancelled.
// End of stream and cancellation return nil; a failing source returns a *CaptureError.
// Errors caused by a single frame never end the loop.
func (p *Proxy) Run(ctx context.Context) error {
	p.state.Store(int32(StateRunning))
	defer p.state.Store(int32(StateTerminated))
	p.logger.Info("Listening for packets", "prefixes", p.cfg.Prefixes.String())

	for {
		if ctx.Err() != nil {
			p.logger.Info("Packet capture stopped")
			return nil
		}

		raw, err := p.source.ReadFrame()
		if err != nil {
			switch {
			case errors.Is(err, ErrTimeout):
				p.stats.timeouts.Add(1)
				continue
			case errors.Is(err, io.EOF):
				p.logger.Info("Packet capture finished")
				return nil
			}
			var captureErr *CaptureError
			if !errors.As(err, &captureErr) {
				captureErr = &CaptureError{Op: "read", Err: err}
			}
			p.logger.Error("Packet capture failed", "error", captureErr)
			return captureErr
		}

		p.stats.frames.Add(1)
		p.handleFrame(ctx, raw)
	}
}

func (p *Proxy) handleFrame(ctx context.Context, raw []byte) {
	frame, err := ParseFrame(raw)
	if err != nil {
		p.state.Store(int32(StateFrameError))
		p.stats.dropped.Add(1)
		p.logger.Debug("Packet dropped", "error", err, "packet", hexValue{raw})
		p.state.Store(int32(StateRunning))
		return
	}

	srcIP, ok := frame.SourceAddress()
	if !ok {
		p.stats.ignored.Add(1)
		p.logger.Debug("Packet dropped, not IPv6", "ethertype", fmt.Sprintf("%#04x", frame.EtherType()))
		return
	}
	if !p.cfg.Prefixes.Contains(srcIP) {
		return
	}
	p.stats.matched.Add(1)

	req := InstallRequest{Address: srcIP, Interface: p.cfg.BroadcastInterface}
	p.logger.Debug("Source address matches prefix", "source IP", srcIP, "source MAC", macValue{frame.SourceMAC()})

	if err := p.installer.Install(ctx, req); err != nil {
		p.stats.installFailures.Add(1)
		p.logger.Warn("Failed to install proxy neighbor", "error", &InstallError{Request: req, Err: err})
		return
	}
	p.stats.installed.Add(1)
	p.logger.Debug("Installed proxy neighbor", "ip", srcIP)
}

package pndp

import (
	"context"
	"log/slog"
	"net/netip"
	"sync"
)

// InstallRequest asks for Address to be answered for on Interface
type InstallRequest struct {
	Address   netip.Addr
	Interface string
}

// Installer registers proxy neighbor entries with the host's network stack.
// Installing the same request twice must be harmless.
type Installer interface {
	Install(ctx context.Context, req InstallRequest) error
}

// InstallerFunc adapts a function to the Installer interface
type InstallerFunc func(ctx context.Context, req InstallRequest) error

func (f InstallerFunc) Install(ctx context.Context, req InstallRequest) error { return f(ctx, req) }

// QueuedInstaller decouples the capture loop from a slow installer.
// Requests are handed to a single worker through a bounded queue; when the queue
// is full the request is dropped and ErrQueueFull returned.
type QueuedInstaller struct {
	next   Installer
	queue  chan InstallRequest
	logger *slog.Logger

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewQueuedInstaller(next Installer, size int, logger *slog.Logger) *QueuedInstaller {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueuedInstaller{
		next:   next,
		queue:  make(chan InstallRequest, size),
		logger: logger,
	}
}

func (q *QueuedInstaller) Install(_ context.Context, req InstallRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.queue <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run installs queued requests until Close is called and the queue is drained.
// Failures are logged and do not stop the worker.
func (q *QueuedInstaller) Run(ctx context.Context) error {
	for req := range q.queue {
		if err := q.next.Install(ctx, req); err != nil {
			q.logger.Warn("Failed to install proxy neighbor", "error", &InstallError{Request: req, Err: err})
		}
	}
	return nil
}

// Close stops accepting requests. Run returns once the remaining ones are installed.
func (q *QueuedInstaller) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.queue)
		q.mu.Unlock()
	})
}

func (q *QueuedInstaller) Len() int { return len(q.queue) }

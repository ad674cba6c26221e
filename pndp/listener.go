package pndp

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const defaultSnaplen = 65535

// CaptureOptions configures a live capture opened with OpenInterface
type CaptureOptions struct {
	// ReadTimeout bounds a single ReadFrame call. Defaults to one second.
	ReadTimeout time.Duration
	Promiscuous bool
	// IgnoreOutgoing drops frames sent by this host
	IgnoreOutgoing bool
	// IPv6Only attaches a BPF program so that the kernel only queues IPv6 frames
	IPv6Only bool
	Snaplen  int
}

// RawSource reads frames from an AF_PACKET socket bound to one interface
type RawSource struct {
	fd     int
	iface  *net.Interface
	opts   CaptureOptions
	buf    []byte
	mu     sync.Mutex
	closed bool
}

// OpenInterface opens a live capture on the named interface.
// An unknown interface is reported as *ConfigError.
func OpenInterface(name string, opts CaptureOptions) (*RawSource, error) {
	niface, err := LookupInterface(name)
	if err != nil {
		return nil, err
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = time.Second
	}
	if opts.Snaplen <= 0 {
		opts.Snaplen = defaultSnaplen
	}

	// Protocol 0 queues nothing until the bind below selects the interface
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, &CaptureError{Op: "socket", Err: err}
	}
	slog.Debug("Obtained fd", "fd", fd)

	fail := func(op string, err error) (*RawSource, error) {
		_ = unix.Close(fd)
		return nil, &CaptureError{Op: op, Err: err}
	}

	if opts.IPv6Only {
		if err := ipv6Filter(uint32(opts.Snaplen)).ApplyTo(fd); err != nil {
			return fail("attach filter", err)
		}
	}

	if err := unix.Bind(fd, linkLayerAddr(niface.Index)); err != nil {
		return fail("bind", err)
	}
	slog.Debug("Bound to interface", "fd", fd, "interface", niface.Name)

	if opts.Promiscuous {
		if err := setPromisc(fd, niface.Index); err != nil {
			return fail("promiscuous mode", err)
		}
	}
	if err := setReadTimeout(fd, opts.ReadTimeout); err != nil {
		return fail("read timeout", err)
	}

	return &RawSource{
		fd:    fd,
		iface: niface,
		opts:  opts,
		buf:   make([]byte, opts.Snaplen),
	}, nil
}

// linkLayerAddr binds to every EtherType on a single interface
func linkLayerAddr(ifindex int) *unix.SockaddrLinklayer {
	return &unix.SockaddrLinklayer{
		Protocol: htons16(unix.ETH_P_ALL),
		Ifindex:  ifindex,
	}
}

func (s *RawSource) Interface() *net.Interface { return s.iface }

func (s *RawSource) ReadFrame() ([]byte, error) {
	for {
		n, from, err := unix.Recvfrom(s.fd, s.buf, 0)
		if err != nil {
			switch {
			case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
				return nil, ErrTimeout
			case errors.Is(err, unix.EBADF) && s.isClosed():
				return nil, io.EOF
			}
			return nil, &CaptureError{Op: "read", Err: err}
		}
		if s.opts.IgnoreOutgoing {
			if ll, ok := from.(*unix.SockaddrLinklayer); ok && ll.Pkttype == unix.PACKET_OUTGOING {
				continue
			}
		}
		if n > len(s.buf) {
			n = len(s.buf)
		}
		return s.buf[:n], nil
	}
}

func (s *RawSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *RawSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.fd)
}

package pndp

import (
	"time"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// bpfFilter represents a classic BPF filter program that can be applied to a socket
type bpfFilter []bpf.Instruction

// ApplyTo applies the current filter onto the provided file descriptor
func (filter bpfFilter) ApplyTo(fd int) (err error) {
	var assembled []bpf.RawInstruction
	if assembled, err = bpf.Assemble(filter); err != nil {
		return err
	}

	filters := make([]unix.SockFilter, len(assembled))
	for i, ins := range assembled {
		filters[i] = unix.SockFilter{Code: ins.Op, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	program := unix.SockFprog{
		Len:    uint16(len(filters)),
		Filter: &filters[0],
	}
	return unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &program)
}

// ipv6Filter keeps IPv6 frames, up to snaplen bytes of each
func ipv6Filter(snaplen uint32) bpfFilter {
	return bpfFilter{
		// Load "EtherType" field from the ethernet header.
		bpf.LoadAbsolute{Off: 12, Size: 2},
		// Jump to the drop packet instruction if EtherType is not IPv6.
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: etherTypeIPv6, SkipTrue: 1},
		// Verdict is: send up to snaplen bytes of the packet to userspace.
		bpf.RetConstant{Val: snaplen},
		// Verdict is: "ignore packet."
		bpf.RetConstant{Val: 0},
	}
}

// setPromisc joins promiscuous mode for the socket's lifetime. The kernel drops
// the membership when the socket is closed.
func setPromisc(fd int, ifindex int) error {
	return unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &unix.PacketMreq{
		Ifindex: int32(ifindex),
		Type:    unix.PACKET_MR_PROMISC,
	})
}

func setReadTimeout(fd int, timeout time.Duration) error {
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	return unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

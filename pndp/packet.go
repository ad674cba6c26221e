package pndp

import (
	"encoding/binary"
	"net"
	"net/netip"
)

const (
	etherTypeIPv6 = 0x86dd

	ethernetHeaderLen = 14
	ipv6HeaderLen     = 40
)

// EthernetHeader is the 14-byte Ethernet II header. VLAN tags are not decoded.
type EthernetHeader struct {
	Destination net.HardwareAddr
	Source      net.HardwareAddr
	EtherType   uint16
}

// IPv6Header is the fixed 40-byte IPv6 header
type IPv6Header struct {
	Version       uint8
	TrafficClass  uint8
	FlowLabel     uint32
	PayloadLength uint16
	NextHeader    uint8
	HopLimit      uint8
	Source        netip.Addr
	Destination   netip.Addr
}

// Frame is the decoded view of one captured frame. It does not keep a reference to the buffer.
type Frame struct {
	Ethernet EthernetHeader
	// IPv6 is only set when the EtherType is IPv6
	IPv6   *IPv6Header
	Length int
}

func (f Frame) EtherType() uint16 { return f.Ethernet.EtherType }

func (f Frame) SourceMAC() net.HardwareAddr { return f.Ethernet.Source }

// SourceAddress returns the IPv6 source address, if the frame carries IPv6
func (f Frame) SourceAddress() (netip.Addr, bool) {
	if f.IPv6 == nil {
		return netip.Addr{}, false
	}
	return f.IPv6.Source, true
}

// ParseFrame decodes an Ethernet II header and, for EtherType 0x86DD, the fixed IPv6 header after it.
// Truncated or inconsistent headers are reported as *ParseError, never as a panic.
func ParseFrame(raw []byte) (Frame, error) {
	f := Frame{Length: len(raw)}
	if len(raw) < ethernetHeaderLen {
		return f, &ParseError{Layer: "ethernet", Offset: 0, Len: len(raw), Err: ErrTruncated}
	}
	f.Ethernet = EthernetHeader{
		Destination: net.HardwareAddr(append([]byte(nil), raw[0:6]...)),
		Source:      net.HardwareAddr(append([]byte(nil), raw[6:12]...)),
		EtherType:   binary.BigEndian.Uint16(raw[12:14]),
	}
	if f.Ethernet.EtherType != etherTypeIPv6 {
		return f, nil
	}

	h, err := parseIPv6Header(raw[ethernetHeaderLen:])
	if err != nil {
		err.Offset += ethernetHeaderLen
		err.Len = len(raw)
		return f, err
	}
	f.IPv6 = h
	return f, nil
}

func parseIPv6Header(b []byte) (*IPv6Header, *ParseError) {
	if len(b) < ipv6HeaderLen {
		return nil, &ParseError{Layer: "ipv6", Err: ErrTruncated}
	}
	// Version (4 bits), Traffic class (8 bits), Flow label (20 bits)
	vtf := binary.BigEndian.Uint32(b[0:4])
	h := &IPv6Header{
		Version:       uint8(vtf >> 28),
		TrafficClass:  uint8(vtf >> 20),
		FlowLabel:     vtf & 0x000fffff,
		PayloadLength: binary.BigEndian.Uint16(b[4:6]),
		NextHeader:    b[6],
		HopLimit:      b[7],
		Source:        netip.AddrFrom16([16]byte(b[8:24])),
		Destination:   netip.AddrFrom16([16]byte(b[24:40])),
	}
	if h.Version != 6 {
		return nil, &ParseError{Layer: "ipv6", Err: ErrMalformed}
	}
	// Anything after the payload is Ethernet padding
	if int(h.PayloadLength) > len(b)-ipv6HeaderLen {
		return nil, &ParseError{Layer: "ipv6", Offset: 4, Err: ErrMalformed}
	}
	return h, nil
}

// ParseSourceAddress returns the IPv6 source address of raw.
// ok is false without an error when the frame is not IPv6.
func ParseSourceAddress(raw []byte) (addr netip.Addr, ok bool, err error) {
	f, err := ParseFrame(raw)
	if err != nil {
		return netip.Addr{}, false, err
	}
	addr, ok = f.SourceAddress()
	return addr, ok, nil
}

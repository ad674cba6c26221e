package pndp

import (
	"errors"
	"net/netip"
	"strconv"
	"strings"
)

// Prefix is an IPv6 network prefix. Bits of the address past Bits() are ignored.
type Prefix struct {
	addr [16]byte
	bits int
}

// ParsePrefix parses the textual form "address/length", e.g. "2001:db8::/32"
func ParsePrefix(s string) (Prefix, error) {
	addrPart, lenPart, found := strings.Cut(s, "/")
	if !found {
		return Prefix{}, &ConfigError{Field: "prefix", Value: s, Err: errors.New("missing '/' separator")}
	}

	addr, err := netip.ParseAddr(addrPart)
	if err != nil {
		return Prefix{}, &ConfigError{Field: "prefix", Value: s, Err: err}
	}
	if !addr.Is6() {
		return Prefix{}, &ConfigError{Field: "prefix", Value: s, Err: errors.New("not an IPv6 address")}
	}
	if addr.Zone() != "" {
		return Prefix{}, &ConfigError{Field: "prefix", Value: s, Err: errors.New("zoned address not allowed")}
	}

	// Atoi would accept a leading sign
	if lenPart == "" || strings.TrimLeft(lenPart, "0123456789") != "" {
		return Prefix{}, &ConfigError{Field: "prefix", Value: s, Err: errors.New("prefix length is not a decimal number")}
	}
	bits, err := strconv.Atoi(lenPart)
	if err != nil || bits > 128 {
		return Prefix{}, &ConfigError{Field: "prefix", Value: s, Err: errors.New("prefix length out of range [0,128]")}
	}

	return Prefix{addr: addr.As16(), bits: bits}, nil
}

// MustParsePrefix is like ParsePrefix but panics on error. For tests and constants.
func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Prefix) Addr() netip.Addr { return netip.AddrFrom16(p.addr) }

func (p Prefix) Bits() int { return p.bits }

func (p Prefix) String() string {
	return p.Addr().String() + "/" + strconv.Itoa(p.bits)
}

// Contains reports whether the leading Bits() bits of addr equal those of the prefix.
// IPv4 addresses never match.
func (p Prefix) Contains(addr netip.Addr) bool {
	if !addr.Is6() {
		return false
	}
	return prefixEqual(p.addr, addr.As16(), p.bits)
}

// prefixEqual compares the first n bits of a and b. The trailing partial byte is masked.
func prefixEqual(a, b [16]byte, n int) bool {
	full := n / 8
	for i := 0; i < full; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	rem := n % 8
	if rem == 0 {
		return true
	}
	mask := byte(0xff << (8 - rem))
	return a[full]&mask == b[full]&mask
}

// PrefixSet is a whitelist of prefixes. An address is contained if any member contains it.
type PrefixSet []Prefix

// ParsePrefixes parses every entry of list. Entries may also be separated by a semicolon.
func ParsePrefixes(list []string) (PrefixSet, error) {
	var set PrefixSet
	for _, entry := range list {
		for _, s := range strings.Split(entry, ";") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			p, err := ParsePrefix(s)
			if err != nil {
				return nil, err
			}
			set = append(set, p)
		}
	}
	if len(set) == 0 {
		return nil, &ConfigError{Field: "prefix", Err: errors.New("at least one prefix is required")}
	}
	return set, nil
}

func (s PrefixSet) Contains(addr netip.Addr) bool {
	for _, p := range s {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (s PrefixSet) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.String()
	}
	return strings.Join(parts, ";")
}

package pndp

import (
	"errors"
	"math/rand/v2"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prefixTestCase struct {
	prefix string
	addr   string
	want   bool
}

func TestPrefixContains(t *testing.T) {
	cases := []prefixTestCase{
		{"2001:db8::/32", "2001:db8:1::1", true},
		{"2001:db8::/32", "2001:db9::1", false},
		{"2001:db8::/32", "2001:db8::", true},
		// Bit 33 (index 32) is the top bit of the fifth byte
		{"2001:db8::/33", "2001:db8:8000::1", false},
		{"2001:db8::/33", "2001:db8:7fff::1", true},
		{"2001:db8:8000::/33", "2001:db8:ffff::1", true},
		{"2001:db8:8000::/33", "2001:db8:7fff::1", false},
		{"fd00::/7", "fc00::1", true},
		{"fd00::/7", "fe00::1", false},
		{"fd00::/8", "fc00::1", false},
		{"::/0", "2001:db8::1", true},
		{"::/0", "::", true},
		{"2001:db8::1/128", "2001:db8::1", true},
		{"2001:db8::1/128", "2001:db8::2", false},
		{"2001:db8::1/127", "2001:db8::", true},
		{"::ffff:0.0.0.0/96", "::ffff:192.0.2.1", true},
	}

	for _, tc := range cases {
		p := MustParsePrefix(tc.prefix)
		got := p.Contains(netip.MustParseAddr(tc.addr))
		if got != tc.want {
			t.Errorf("%s contains %s: expected %v, but got %v", tc.prefix, tc.addr, tc.want, got)
		}
	}
}

func TestPrefixContainsIPv4NeverMatches(t *testing.T) {
	assert.False(t, MustParsePrefix("::/0").Contains(netip.MustParseAddr("192.0.2.1")))
	assert.False(t, MustParsePrefix("::/0").Contains(netip.Addr{}))
}

// Flipping bit k of the prefix address leaves it inside a prefix of length L exactly when k >= L.
func TestPrefixContainsEveryLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 4; round++ {
		var base [16]byte
		for i := range base {
			base[i] = byte(rng.UintN(256))
		}
		for bits := 0; bits <= 128; bits++ {
			p := Prefix{addr: base, bits: bits}
			require.True(t, p.Contains(netip.AddrFrom16(base)), "prefix %s must contain its own address", p)

			for k := 0; k < 128; k++ {
				flipped := base
				flipped[k/8] ^= 0x80 >> (k % 8)
				want := k >= bits
				if got := p.Contains(netip.AddrFrom16(flipped)); got != want {
					t.Fatalf("/%d with bit %d flipped: expected %v, but got %v", bits, k, want, got)
				}
			}
		}
	}
}

func TestPrefixContainsMatchesBitwiseReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	bit := func(a [16]byte, i int) byte { return a[i/8]>>(7-i%8)&1 }

	for i := 0; i < 2000; i++ {
		var a, b [16]byte
		for j := range a {
			a[j] = byte(rng.UintN(256))
			b[j] = a[j]
		}
		// Flip one random bit
		b[rng.IntN(16)] ^= byte(1 << rng.UintN(8))
		bits := rng.IntN(129)

		want := true
		for k := 0; k < bits; k++ {
			if bit(a, k) != bit(b, k) {
				want = false
				break
			}
		}
		p := Prefix{addr: a, bits: bits}
		assert.Equal(t, want, p.Contains(netip.AddrFrom16(b)), "/%d %x %x", bits, a, b)
	}
}

func TestPrefixContainsIsPure(t *testing.T) {
	p := MustParsePrefix("2001:db8::/33")
	addr := netip.MustParseAddr("2001:db8:7fff::1")
	first := p.Contains(addr)
	assert.Equal(t, first, p.Contains(addr))
	assert.Equal(t, "2001:db8::/33", p.String())
}

func TestParsePrefix(t *testing.T) {
	p, err := ParsePrefix("2001:db8::/32")
	require.NoError(t, err)
	assert.Equal(t, 32, p.Bits())
	assert.Equal(t, netip.MustParseAddr("2001:db8::"), p.Addr())

	p, err = ParsePrefix("::/0")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Bits())

	p, err = ParsePrefix("2001:db8::1/128")
	require.NoError(t, err)
	assert.Equal(t, 128, p.Bits())
}

func TestParsePrefixErrors(t *testing.T) {
	cases := []string{
		"2001:db8::",        // no separator
		"",                  // empty
		"/32",               // no address
		"2001:db8::/",       // no length
		"2001:db8::/129",    // length too large
		"2001:db8::/-1",     // negative
		"2001:db8::/+32",    // sign
		"2001:db8::/3 2",    // junk
		"2001:db8::/thirty", // not a number
		"192.0.2.0/24",      // IPv4
		"2001:db8:::/32",    // bad literal
		"fe80::%eth0/64",    // zone
		"2001:db8::/32/1",   // extra separator
	}
	for _, s := range cases {
		_, err := ParsePrefix(s)
		var configErr *ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("ParsePrefix(%q): expected a ConfigError, but got %v", s, err)
			continue
		}
		assert.Equal(t, "prefix", configErr.Field)
	}
}

func TestParsePrefixes(t *testing.T) {
	set, err := ParsePrefixes([]string{"2001:db8::/32;fd00::/8", " 2001:db8:1::/48 "})
	require.NoError(t, err)
	require.Len(t, set, 3)
	assert.Equal(t, "2001:db8::/32;fd00::/8;2001:db8:1::/48", set.String())

	assert.True(t, set.Contains(netip.MustParseAddr("fd00::1")))
	assert.True(t, set.Contains(netip.MustParseAddr("2001:db8:ffff::1")))
	assert.False(t, set.Contains(netip.MustParseAddr("2001:db9::1")))

	_, err = ParsePrefixes(nil)
	var configErr *ConfigError
	assert.ErrorAs(t, err, &configErr)

	_, err = ParsePrefixes([]string{"2001:db8::/32", "bogus"})
	assert.ErrorAs(t, err, &configErr)
}

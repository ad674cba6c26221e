package rtnetlink

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"lndpd/pndp"
)

var errNoLink = errors.New("Link not found")

type fakeNetlink struct {
	lookups int
	index   int
	neighs  []netlink.Neigh
	setErr  error
}

func (f *fakeNetlink) installer() *Installer {
	i := New()
	i.linkByName = func(name string) (netlink.Link, error) {
		f.lookups++
		if name != "eth1" {
			return nil, errNoLink
		}
		return &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: name, Index: f.index}}, nil
	}
	i.neighSet = func(n *netlink.Neigh) error {
		f.neighs = append(f.neighs, *n)
		return f.setErr
	}
	return i
}

func request(addr, iface string) pndp.InstallRequest {
	return pndp.InstallRequest{Address: netip.MustParseAddr(addr), Interface: iface}
}

func TestProxyNeigh(t *testing.T) {
	n := proxyNeigh(7, netip.MustParseAddr("2001:db8::1"))
	assert.Equal(t, 7, n.LinkIndex)
	assert.Equal(t, netlink.FAMILY_V6, n.Family)
	assert.Equal(t, netlink.NTF_PROXY, n.Flags)
	assert.True(t, n.IP.Equal(net.ParseIP("2001:db8::1")))
	assert.Len(t, n.IP, net.IPv6len)
}

func TestInstallCachesLinkIndex(t *testing.T) {
	f := &fakeNetlink{index: 3}
	i := f.installer()

	require.NoError(t, i.Install(context.Background(), request("2001:db8::1", "eth1")))
	require.NoError(t, i.Install(context.Background(), request("2001:db8::2", "eth1")))

	assert.Equal(t, 1, f.lookups)
	require.Len(t, f.neighs, 2)
	assert.Equal(t, 3, f.neighs[1].LinkIndex)
	assert.True(t, f.neighs[1].IP.Equal(net.ParseIP("2001:db8::2")))
}

func TestInstallUnknownLink(t *testing.T) {
	f := &fakeNetlink{index: 3}
	err := f.installer().Install(context.Background(), request("2001:db8::1", "eth9"))
	assert.ErrorIs(t, err, errNoLink)
	assert.Empty(t, f.neighs)
}

func TestInstallForgetsVanishedLink(t *testing.T) {
	f := &fakeNetlink{index: 3, setErr: unix.ENODEV}
	i := f.installer()

	err := i.Install(context.Background(), request("2001:db8::1", "eth1"))
	assert.True(t, errors.Is(err, unix.ENODEV))

	f.setErr = nil
	f.index = 4
	require.NoError(t, i.Install(context.Background(), request("2001:db8::1", "eth1")))
	assert.Equal(t, 2, f.lookups)
	assert.Equal(t, 4, f.neighs[1].LinkIndex)
}

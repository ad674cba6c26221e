// Package rtnetlink installs proxy neighbor entries over rtnetlink,
// the equivalent of "ip -6 neigh replace proxy <addr> dev <iface>".
package rtnetlink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"lndpd/modules"
	"lndpd/pndp"
)

const Name = "netlink"

func init() {
	modules.RegisterModule(Name, "Add NTF_PROXY neighbor entries through rtnetlink (default)", func(opts modules.Options) (pndp.Installer, error) {
		return New(), nil
	})
}

// Installer caches link indexes by interface name. Entries are replaced, so
// installing the same address again is a no-op for the kernel.
type Installer struct {
	linkByName func(name string) (netlink.Link, error)
	neighSet   func(neigh *netlink.Neigh) error

	mu      sync.Mutex
	indexes map[string]int
}

func New() *Installer {
	return &Installer{
		linkByName: netlink.LinkByName,
		neighSet:   netlink.NeighSet,
		indexes:    make(map[string]int),
	}
}

func (i *Installer) Install(_ context.Context, req pndp.InstallRequest) error {
	index, err := i.linkIndex(req.Interface)
	if err != nil {
		return err
	}
	err = i.neighSet(proxyNeigh(index, req.Address))
	if errors.Is(err, unix.ENODEV) {
		// The interface was recreated under the same name
		i.forget(req.Interface)
	}
	return err
}

func (i *Installer) linkIndex(name string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if index, ok := i.indexes[name]; ok {
		return index, nil
	}
	link, err := i.linkByName(name)
	if err != nil {
		return 0, fmt.Errorf("lookup link %s: %w", name, err)
	}
	i.indexes[name] = link.Attrs().Index
	return link.Attrs().Index, nil
}

func (i *Installer) forget(name string) {
	i.mu.Lock()
	delete(i.indexes, name)
	i.mu.Unlock()
}

func proxyNeigh(linkIndex int, addr netip.Addr) *netlink.Neigh {
	return &netlink.Neigh{
		LinkIndex: linkIndex,
		Family:    netlink.FAMILY_V6,
		Flags:     netlink.NTF_PROXY,
		IP:        net.IP(addr.AsSlice()),
	}
}

// List returns the IPv6 proxy neighbor entries installed on iface
func List(iface string) ([]netip.Addr, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return nil, fmt.Errorf("lookup link %s: %w", iface, err)
	}
	neighs, err := netlink.NeighProxyList(link.Attrs().Index, netlink.FAMILY_V6)
	if err != nil {
		return nil, fmt.Errorf("list proxy neighbors on %s: %w", iface, err)
	}
	addrs := make([]netip.Addr, 0, len(neighs))
	for _, n := range neighs {
		if addr, ok := netip.AddrFromSlice(n.IP); ok {
			addrs = append(addrs, addr)
		}
	}
	return addrs, nil
}

package pndp

import (
	"errors"
	"net"
)

// Interfaces lists the network interfaces of the host
func Interfaces() ([]net.Interface, error) {
	return net.Interfaces()
}

// LookupInterface returns the interface called name, or a *ConfigError if there is none
func LookupInterface(name string) (*net.Interface, error) {
	if name == "" {
		return nil, &ConfigError{Field: "interface", Err: errors.New("no interface name given")}
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, &ConfigError{Field: "interface", Value: name, Err: errors.New("no such network interface")}
	}
	return iface, nil
}

// CheckInterfaces verifies that every named interface exists
func CheckInterfaces(names ...string) error {
	for _, name := range names {
		if _, err := LookupInterface(name); err != nil {
			return err
		}
	}
	return nil
}

package pndp

import (
	"fmt"
	"log/slog"
	"net"
)

type hexValue struct {
	arg []byte
}

func (v hexValue) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprintf("%X", v.arg))
}

type macValue struct {
	arg net.HardwareAddr
}

func (v macValue) LogValue() slog.Value {
	if len(v.arg) != 6 {
		return slog.StringValue(fmt.Sprintf("%X", []byte(v.arg)))
	}
	return slog.StringValue(v.arg.String())
}

// htons16 Convert a uint16 to network byte order (big endian)
func htons16(v uint16) uint16 { return (v << 8) | (v >> 8) }

package pndp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// FileSource replays frames from a pcap or pcapng file. It never times out and
// returns io.EOF after the last frame.
type FileSource struct {
	path string
	f    *os.File
	r    packetReader
}

// OpenCaptureFile opens a capture file for replay. Only Ethernet captures are accepted.
func OpenCaptureFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Field: "capture file", Value: path, Err: err}
	}
	br := bufio.NewReader(f)

	var r packetReader
	magic, _ := br.Peek(len(pcapngMagic))
	if bytes.Equal(magic, pcapngMagic) {
		r, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		r, err = pcapgo.NewReader(br)
	}
	if err != nil {
		_ = f.Close()
		return nil, &ConfigError{Field: "capture file", Value: path, Err: err}
	}
	if r.LinkType() != layers.LinkTypeEthernet {
		_ = f.Close()
		return nil, &ConfigError{Field: "capture file", Value: path, Err: fmt.Errorf("unsupported link type %s", r.LinkType())}
	}

	return &FileSource{path: path, f: f, r: r}, nil
}

func (s *FileSource) ReadFrame() ([]byte, error) {
	data, _, err := s.r.ReadPacketData()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &CaptureError{Op: "read " + s.path, Err: err}
	}
	return data, nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

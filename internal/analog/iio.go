package analog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultIIODevice is the first industrial-I/O device exposed by the kernel.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// IIOReader reads channels from a Linux IIO ADC through sysfs
// (in_voltage<N>_raw files).
type IIOReader struct {
	dir       string
	fullScale uint32
}

// NewIIOReader opens the IIO device directory. bits is the converter
// resolution used to scale readings onto 0..MaxValue.
func NewIIOReader(dir string, bits uint) (*IIOReader, error) {
	if bits == 0 || bits > 24 {
		return nil, fmt.Errorf("analog: unsupported resolution %d bits", bits)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open iio device: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open iio device: %s is not a directory", dir)
	}
	return &IIOReader{dir: dir, fullScale: 1<<bits - 1}, nil
}

// ReadChannel performs one conversion on channel id.
func (r *IIOReader) ReadChannel(id int) (uint16, error) {
	if id < 0 {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("in_voltage%d_raw", id))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %d", ErrUnknownChannel, id)
		}
		return 0, fmt.Errorf("read channel %d: %w", id, err)
	}
	raw, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse channel %d: %w", id, err)
	}
	return Scale(uint32(raw), r.fullScale), nil
}

// Close is a no-op; each read opens its own file.
func (r *IIOReader) Close() error {
	return nil
}

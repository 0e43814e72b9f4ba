//go:build !linux

package gpio

import "errors"

// RealPort is not available on non-Linux platforms.
type RealPort struct{}

// NewRealPort returns an error on non-Linux platforms.
func NewRealPort(cfg Config) (*RealPort, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// WritePattern is not implemented on non-Linux platforms.
func (p *RealPort) WritePattern(pattern uint8) error {
	return errors.New("gpio: not supported")
}

// ReadPin is not implemented on non-Linux platforms.
func (p *RealPort) ReadPin(id int) (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (p *RealPort) Close() error {
	return nil
}

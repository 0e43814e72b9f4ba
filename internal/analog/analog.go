// Package analog reads sampled analog channels (the accelerometer axes and
// other sensors). The real implementation reads the Linux IIO sysfs
// interface; the fake returns scripted samples.
package analog

import "errors"

// MaxValue is the full-scale reading of the 10-bit converter.
const MaxValue = 1023

// Reader reads one conversion from an analog channel.
type Reader interface {
	// ReadChannel returns a reading in 0..MaxValue.
	ReadChannel(id int) (uint16, error)

	// Close releases resources.
	Close() error
}

var ErrUnknownChannel = errors.New("analog: unknown channel")

// Scale maps a raw reading with the given full-scale value onto 0..MaxValue.
// Converters with more than 10 bits are narrowed; values above full scale
// are clamped.
func Scale(raw, fullScale uint32) uint16 {
	if fullScale == 0 {
		return 0
	}
	if raw > fullScale {
		raw = fullScale
	}
	return uint16(uint64(raw) * MaxValue / uint64(fullScale))
}

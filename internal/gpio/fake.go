package gpio

import "fmt"

// FakePort is a test double that records written patterns and returns
// scripted pin levels.
type FakePort struct {
	// Patterns contains every pattern written, in order.
	Patterns []uint8

	// Pins contains scripted levels per pin id.
	// Each ReadPin call consumes the next level; the last one repeats.
	Pins map[int][]bool

	// index tracks the read position per pin
	index map[int]int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadPin.
	ReadError error

	// WriteError, if set, will be returned by WritePattern.
	WriteError error
}

// NewFakePort creates a FakePort with the given scripted pin levels.
func NewFakePort(pins map[int][]bool) *FakePort {
	if pins == nil {
		pins = map[int][]bool{}
	}
	return &FakePort{Pins: pins, index: map[int]int{}}
}

// WritePattern records the pattern.
func (f *FakePort) WritePattern(pattern uint8) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Patterns = append(f.Patterns, pattern)
	return nil
}

// ReadPin returns the next scripted level for id.
func (f *FakePort) ReadPin(id int) (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	levels, ok := f.Pins[id]
	if !ok || len(levels) == 0 {
		return false, fmt.Errorf("%w: %d", ErrUnknownPin, id)
	}

	i := f.index[id]
	if i < len(levels)-1 {
		f.index[id] = i + 1
	}
	return levels[i], nil
}

// Last returns the most recently written pattern.
func (f *FakePort) Last() (uint8, bool) {
	if len(f.Patterns) == 0 {
		return 0, false
	}
	return f.Patterns[len(f.Patterns)-1], true
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds all pins and clears recorded patterns.
func (f *FakePort) Reset() {
	f.index = map[int]int{}
	f.Patterns = nil
	f.Closed = false
}

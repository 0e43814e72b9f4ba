package analog

import "fmt"

// FakeReader is a test double that returns scripted readings per channel.
type FakeReader struct {
	// Samples contains scripted readings per channel id.
	// Each ReadChannel call consumes the next reading; the last one repeats.
	Samples map[int][]uint16

	index map[int]int

	// Reads counts ReadChannel calls per channel.
	Reads map[int]int

	// ReadError, if set, will be returned by ReadChannel.
	ReadError error

	Closed bool
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples map[int][]uint16) *FakeReader {
	if samples == nil {
		samples = map[int][]uint16{}
	}
	return &FakeReader{Samples: samples, index: map[int]int{}, Reads: map[int]int{}}
}

// ReadChannel returns the next scripted reading.
func (f *FakeReader) ReadChannel(id int) (uint16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	s, ok := f.Samples[id]
	if !ok || len(s) == 0 {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	f.Reads[id]++

	i := f.index[id]
	if i < len(s)-1 {
		f.index[id] = i + 1
	}
	return s[i], nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

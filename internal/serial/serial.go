// Package serial provides the one-way line output used to stream
// measurements off the board.
package serial

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink writes formatted lines.
type Sink interface {
	WriteLine(line string) error
}

// WriterSink terminates each line with CRLF, as a terminal on the other end
// of a UART expects.
type WriterSink struct {
	mu sync.Mutex
	w  *bufio.Writer
	c  io.Closer
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	s := &WriterSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok && w != os.Stdout && w != os.Stderr {
		s.c = c
	}
	return s
}

// Open returns a sink on stdout when path is empty, or on the named
// device/file otherwise. The device's line settings are left as configured
// by the system (e.g. with stty).
func Open(path string) (*WriterSink, error) {
	if path == "" {
		return NewWriterSink(os.Stdout), nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return NewWriterSink(f), nil
}

// WriteLine writes one line and flushes it.
func (s *WriterSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString(line + "\r\n"); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("serial flush: %w", err)
	}
	return nil
}

// Close closes the underlying device if the sink opened one.
func (s *WriterSink) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

// FakeSink records lines for tests.
type FakeSink struct {
	Lines []string
	// Error, if set, is returned by WriteLine.
	Error error
}

// NewFakeSink creates an empty FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// WriteLine records the line.
func (f *FakeSink) WriteLine(line string) error {
	if f.Error != nil {
		return f.Error
	}
	f.Lines = append(f.Lines, line)
	return nil
}

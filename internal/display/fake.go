package display

import (
	"fmt"
	"strings"
)

// FakeSink records display calls and keeps a text grid for assertions.
type FakeSink struct {
	// Ops lists every call in order, e.g. "text 0,5 Pattern: 0b01111111".
	Ops []string

	// Circles lists every circle drawn since the last Clear.
	Circles []Circle

	// Flushes counts Flush calls.
	Flushes int

	// Error, if set, is returned by every call.
	Error error

	rows map[int][]rune
}

// Circle is a recorded circle.
type Circle struct {
	X, Y, R int16
}

// NewFakeSink creates an empty FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{rows: map[int][]rune{}}
}

func (f *FakeSink) Clear() error {
	if f.Error != nil {
		return f.Error
	}
	f.Ops = append(f.Ops, "clear")
	f.rows = map[int][]rune{}
	f.Circles = nil
	return nil
}

func (f *FakeSink) WriteText(col, row int, text string) error {
	if f.Error != nil {
		return f.Error
	}
	f.Ops = append(f.Ops, fmt.Sprintf("text %d,%d %s", col, row, text))
	f.put(col, row, text)
	return nil
}

func (f *FakeSink) WriteDecimal(col, row int, value uint32, digits int) error {
	if f.Error != nil {
		return f.Error
	}
	s := FormatDecimal(value, digits)
	f.Ops = append(f.Ops, fmt.Sprintf("decimal %d,%d %s", col, row, s))
	f.put(col, row, s)
	return nil
}

func (f *FakeSink) Circle(x, y, r int16) error {
	if f.Error != nil {
		return f.Error
	}
	f.Ops = append(f.Ops, fmt.Sprintf("circle %d,%d r%d", x, y, r))
	f.Circles = append(f.Circles, Circle{X: x, Y: y, R: r})
	return nil
}

func (f *FakeSink) Flush() error {
	if f.Error != nil {
		return f.Error
	}
	f.Flushes++
	return nil
}

// Line returns the text currently on row, trailing spaces trimmed.
func (f *FakeSink) Line(row int) string {
	return strings.TrimRight(string(f.rows[row]), " ")
}

func (f *FakeSink) put(col, row int, text string) {
	line := f.rows[row]
	for len(line) < col+len(text) {
		line = append(line, ' ')
	}
	copy(line[col:], []rune(text))
	f.rows[row] = line
}

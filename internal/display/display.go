// Package display renders observability output (text, numbers and simple
// graphics) for the control loop. Nothing written here is ever read back by
// the loop.
package display

import (
	"fmt"
	"strings"
)

// Sink is a character/graphics display.
// Text positions are character cells; graphics positions are pixels.
type Sink interface {
	Clear() error
	WriteText(col, row int, text string) error
	// WriteDecimal writes the last digits decimal digits of value,
	// zero padded.
	WriteDecimal(col, row int, value uint32, digits int) error
	Circle(x, y, r int16) error
	// Flush presents everything drawn since the last flush.
	Flush() error
}

// FormatDecimal renders value the way WriteDecimal does.
func FormatDecimal(value uint32, digits int) string {
	if digits <= 0 {
		return ""
	}
	if digits > 10 {
		digits = 10
	}
	s := fmt.Sprintf("%0*d", digits, value)
	return s[len(s)-digits:]
}

// Pad right-pads s with spaces to width so stale characters are overwritten.
func Pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Package gpio provides the digital I/O port with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "errors"

// Port writes the LED array and reads button pins.
// Values are logical: bit set = LED lit, true = button pressed. Active-low
// wiring is resolved by the implementation.
type Port interface {
	// WritePattern drives the 8 LED lines, bit 0 on the first line.
	WritePattern(pattern uint8) error

	// ReadPin returns the logical level of button pin id (index into the
	// configured button lines).
	ReadPin(id int) (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default line offsets on gpiochip0 (BCM numbering).
var (
	DefaultLEDLines    = []int{17, 27, 22, 5, 6, 13, 19, 26}
	DefaultButtonLines = []int{20, 21}
)

// LEDCount is the width of the LED array.
const LEDCount = 8

var ErrUnknownPin = errors.New("gpio: unknown pin")

// Config selects the lines used by the real port.
type Config struct {
	Chip            string
	LEDLines        []int
	ButtonLines     []int
	LEDActiveLow    bool
	ButtonActiveLow bool
}

// levels expands a pattern into per-line values, honouring active-low wiring.
func levels(pattern uint8, activeLow bool) []int {
	out := make([]int, LEDCount)
	for i := range out {
		on := pattern&(1<<uint(i)) != 0
		if on != activeLow {
			out[i] = 1
		}
	}
	return out
}

package logic

import (
	"fmt"
	"math/bits"
)

// Op selects how the next pattern is derived from the current one.
type Op uint8

const (
	Toggle Op = iota
	RotateCW
	RotateCCW
)

func (o Op) String() string {
	switch o {
	case Toggle:
		return "TOGGLE"
	case RotateCW:
		return "CW"
	case RotateCCW:
		return "CCW"
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Direction is the last rotation direction applied to a pattern.
type Direction string

const (
	DirectionCW  Direction = "CW"
	DirectionCCW Direction = "CCW"
)

// Next returns the pattern that follows value under op.
// Rotations are circular over 8 bits, so no bits are lost.
func Next(value uint8, op Op) uint8 {
	switch op {
	case RotateCW:
		return bits.RotateLeft8(value, 1)
	case RotateCCW:
		return bits.RotateLeft8(value, -1)
	default:
		return ^value
	}
}

// Binary renders value as eight '0'/'1' characters, MSB first.
func Binary(value uint8) string {
	return fmt.Sprintf("%08b", value)
}

// PatternState is the LED pattern owned by a pattern task.
type PatternState struct {
	Value      uint8
	Direction  Direction
	CycleCount uint32
}

// NewPatternState starts a pattern at initial, rotating clockwise.
func NewPatternState(initial uint8) *PatternState {
	return &PatternState{Value: initial, Direction: DirectionCW}
}

// Step applies op once and returns the new value.
// It reports whether the rotation direction changed.
func (p *PatternState) Step(op Op) (uint8, bool) {
	p.Value = Next(p.Value, op)
	p.CycleCount++

	prev := p.Direction
	switch op {
	case RotateCW:
		p.Direction = DirectionCW
	case RotateCCW:
		p.Direction = DirectionCCW
	}
	return p.Value, prev != p.Direction
}

package logic

import "errors"

// MotionSample is one reading of the three accelerometer channels,
// normalized to the ADC range (0-1023 for a 10-bit converter).
type MotionSample struct {
	X uint16
	Y uint16
	Z uint16
}

// CenterSample is the resting reading of an axis at 0g.
var CenterSample = MotionSample{X: 512, Y: 512, Z: 512}

// Orientation is the coarse physical orientation derived from fixed bands.
type Orientation string

const (
	FaceUp      Orientation = "FACE UP"
	FaceDown    Orientation = "FACE DOWN"
	TiltedRight Orientation = "TILTED RIGHT"
	TiltedLeft  Orientation = "TILTED LEFT"
	Level       Orientation = "LEVEL"
)

// Verdict is the result of classifying one sample.
type Verdict struct {
	Motion      bool
	Orientation Orientation
}

// MotionConfig holds the classifier constants.
type MotionConfig struct {
	// Threshold is the per-axis change, in ADC counts, that counts as motion.
	Threshold uint16
	LowBand   uint16
	HighBand  uint16
}

// DefaultMotionConfig matches an ADXL335-class sensor on a 10-bit ADC.
var DefaultMotionConfig = MotionConfig{Threshold: 50, LowBand: 300, HighBand: 700}

var ErrInvalidBands = errors.New("motion: low band must be below high band")

// Validate rejects band configurations that make orientation ambiguous.
func (c MotionConfig) Validate() error {
	if c.LowBand >= c.HighBand {
		return ErrInvalidBands
	}
	return nil
}

// Classify compares current against previous and the fixed bands.
// Motion is any axis moving strictly more than the threshold. Orientation is
// decided on current alone, Z before X, first match wins.
func Classify(current, previous MotionSample, cfg MotionConfig) Verdict {
	t := cfg.Threshold
	motion := absDiff(current.X, previous.X) > t ||
		absDiff(current.Y, previous.Y) > t ||
		absDiff(current.Z, previous.Z) > t

	var o Orientation
	switch {
	case current.Z > cfg.HighBand:
		o = FaceUp
	case current.Z < cfg.LowBand:
		o = FaceDown
	case current.X > cfg.HighBand:
		o = TiltedRight
	case current.X < cfg.LowBand:
		o = TiltedLeft
	default:
		o = Level
	}
	return Verdict{Motion: motion, Orientation: o}
}

func absDiff(a, b uint16) uint16 {
	if a > b {
		return a - b
	}
	return b - a
}

// MotionState tracks the previous sample between classification calls.
type MotionState struct {
	Previous       MotionSample
	MotionDetected bool
}

// NewMotionState starts from the resting centre reading.
func NewMotionState() *MotionState {
	return &MotionState{Previous: CenterSample}
}

// Update classifies current, then makes it the previous sample.
// There is no smoothing: a single noisy sample can flip the verdict.
func (m *MotionState) Update(current MotionSample, cfg MotionConfig) Verdict {
	v := Classify(current, m.Previous, cfg)
	m.MotionDetected = v.Motion
	m.Previous = current
	return v
}

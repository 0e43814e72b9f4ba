// Package logic contains the pure state machines driven by the control loop:
// the pattern generator, the debounced input filter and the threshold motion
// classifier.
// This package has NO external dependencies (no GPIO, ADC, MQTT, OS, or sleeps).
// Time is always injected as a millisecond reading.
package logic

// EventType names an observable change produced by a demo task.
type EventType string

const (
	EventPattern EventType = "PATTERN"
	EventPress   EventType = "PRESS"
	EventMotion  EventType = "MOTION"
)

// Event is a state change to be published.
type Event struct {
	// Milliseconds on the loop clock when the change happened.
	AtMs uint64
	Type EventType

	// Pattern events
	Pattern   uint8
	Direction Direction

	// Count is the cycle count for PATTERN and the press count for PRESS.
	Count uint32

	// Motion events
	Sample  MotionSample
	Verdict Verdict
}

// elapsed returns now-since with unsigned wraparound, so a clock that wraps
// past the top of its range still yields the true distance.
func elapsed(now, since uint64) uint64 {
	return now - since
}

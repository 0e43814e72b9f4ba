package logic

// DebounceState is the filter state for a single digital input.
type DebounceState struct {
	// Last raw reading
	LastSample bool
	// Current debounced level
	StableValue bool
	// Time when LastSample last changed
	LastChangeMs uint64
	// Whether the first reading has been observed
	Seeded bool
}

// Debouncer converts a raw, possibly bouncing input into a stable level.
// The stable level only follows the raw input after it has held a new level
// for at least the settle interval.
type Debouncer struct {
	settleMs uint32
	state    DebounceState
	changed  bool
}

// NewDebouncer creates a filter with the given settle interval.
// A zero settle interval commits a new level on the second matching sample.
func NewDebouncer(settleMs uint32) *Debouncer {
	return &Debouncer{settleMs: settleMs}
}

// Sample feeds one raw reading taken at nowMs and returns the stable level.
func (d *Debouncer) Sample(raw bool, nowMs uint64) bool {
	d.changed = false
	s := &d.state

	// First reading seeds everything so there is no transition from an
	// undefined level.
	if !s.Seeded {
		s.Seeded = true
		s.LastSample = raw
		s.StableValue = raw
		s.LastChangeMs = nowMs
		return s.StableValue
	}

	if raw != s.LastSample {
		// Restart the settle window, keep the stable level
		s.LastSample = raw
		s.LastChangeMs = nowMs
		return s.StableValue
	}

	if raw != s.StableValue && elapsed(nowMs, s.LastChangeMs) >= uint64(d.settleMs) {
		s.StableValue = raw
		d.changed = true
	}
	return s.StableValue
}

// Stable returns the current debounced level without sampling.
func (d *Debouncer) Stable() bool {
	return d.state.StableValue
}

// Changed reports whether the last Sample call flipped the stable level.
func (d *Debouncer) Changed() bool {
	return d.changed
}

// Rose reports whether the last Sample call flipped the stable level to true.
func (d *Debouncer) Rose() bool {
	return d.changed && d.state.StableValue
}

// State returns a copy of the filter state.
func (d *Debouncer) State() DebounceState {
	return d.state
}

// SettleMs returns the configured settle interval.
func (d *Debouncer) SettleMs() uint32 {
	return d.settleMs
}

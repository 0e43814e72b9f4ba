package demo

import (
	"github.com/sweeney/boardloop/internal/display"
	"github.com/sweeney/boardloop/internal/logic"
)

// Rotation display rows.
const (
	rowDirection = 1
	rowPattern   = 2
	rowValue     = 3
	rowRotations = 4
	rowUptime    = 5
)

// buildRotation rotates the pattern clockwise while the button is held and
// counter-clockwise otherwise.
func buildRotation(d *Demo) error {
	pattern := logic.NewPatternState(d.cfg.Pattern.Initial)
	button := logic.NewDebouncer(d.cfg.Debounce.SettleMs)

	d.loop.Pattern = pattern.Value
	d.loop.Direction = pattern.Direction
	if err := d.writePattern(pattern.Value); err != nil {
		return err
	}

	sc := d.screen()
	sc.clear()
	sc.text(0, 0, "Rotation Demo")
	sc.text(0, rowDirection, directionLine(pattern.Direction))
	sc.text(0, rowPattern, "Pattern: 0b"+logic.Binary(pattern.Value))
	if err := sc.flush(); err != nil {
		return err
	}

	if err := d.sched.Register("button", d.cfg.Intervals.SampleMs, func(now uint64) error {
		return d.readButton(button, now)
	}); err != nil {
		return err
	}

	return d.sched.Register("rotate", d.cfg.Intervals.RotateMs, func(now uint64) error {
		op := logic.RotateCCW
		if button.Stable() {
			op = logic.RotateCW
		}
		v, turned := pattern.Step(op)
		if err := d.writePattern(v); err != nil {
			return err
		}
		d.loop.Pattern = v
		d.loop.Direction = pattern.Direction
		d.loop.Cycles = pattern.CycleCount

		sc := d.screen()
		if turned {
			sc.text(0, rowDirection, directionLine(pattern.Direction))
		}
		sc.text(0, rowPattern, "Pattern: 0b"+logic.Binary(v))
		sc.text(0, rowValue, "Value: ")
		sc.decimal(7, rowValue, uint32(v), 3)
		sc.text(0, rowRotations, "Rotations: ")
		sc.decimal(11, rowRotations, pattern.CycleCount, 5)
		sc.text(0, rowUptime, "Uptime: ")
		sc.decimal(8, rowUptime, d.uptimeSec(now), 5)
		sc.text(13, rowUptime, "s")
		if err := sc.flush(); err != nil {
			return err
		}

		d.publish(logic.Event{
			AtMs:      now,
			Type:      logic.EventPattern,
			Pattern:   v,
			Direction: pattern.Direction,
			Count:     pattern.CycleCount,
		})
		return nil
	})
}

func directionLine(dir logic.Direction) string {
	return display.Pad("Direction: "+string(dir), 14)
}

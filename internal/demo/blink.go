package demo

import (
	"github.com/sweeney/boardloop/internal/logic"
)

// buildBlink toggles the whole LED array: all on, all off.
func buildBlink(d *Demo) error {
	pattern := logic.NewPatternState(0x00)

	sc := d.screen()
	sc.clear()
	sc.text(0, 0, "Blink Demo")
	sc.text(0, 1, "LEDs: OFF")
	if err := sc.flush(); err != nil {
		return err
	}
	if err := d.writePattern(pattern.Value); err != nil {
		return err
	}

	return d.sched.Register("blink", d.cfg.Intervals.BlinkMs, func(now uint64) error {
		v, _ := pattern.Step(logic.Toggle)
		if err := d.writePattern(v); err != nil {
			return err
		}
		d.loop.Pattern = v
		d.loop.Cycles = pattern.CycleCount

		state := "OFF"
		if v != 0 {
			state = "ON "
		}
		sc := d.screen()
		sc.text(0, 1, "LEDs: "+state)
		sc.text(0, 2, "Toggles: ")
		sc.decimal(9, 2, pattern.CycleCount, 5)
		if err := sc.flush(); err != nil {
			return err
		}

		d.publish(logic.Event{AtMs: now, Type: logic.EventPattern, Pattern: v, Count: pattern.CycleCount})
		return nil
	})
}

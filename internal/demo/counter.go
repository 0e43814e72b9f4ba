package demo

import (
	"github.com/sweeney/boardloop/internal/logic"
)

// led7 is the indicator LED flashed on each press.
const led7 = 0x80

// buildCounter counts debounced presses and flashes LED 7 for each one.
func buildCounter(d *Demo) error {
	button := logic.NewDebouncer(d.cfg.Debounce.SettleMs)
	var (
		presses    uint32
		flashing   bool
		flashStart uint64
	)

	if err := d.writePattern(0); err != nil {
		return err
	}
	sc := d.screen()
	sc.clear()
	sc.text(0, 0, "Counter Demo")
	sc.text(0, 1, "Events: ")
	sc.decimal(8, 1, 0, 5)
	if err := sc.flush(); err != nil {
		return err
	}

	if err := d.sched.Register("button", d.cfg.Intervals.SampleMs, func(now uint64) error {
		if err := d.readButton(button, now); err != nil {
			return err
		}

		if flashing && now-flashStart >= uint64(d.cfg.Counter.FlashMs) {
			flashing = false
			if err := d.writePattern(0); err != nil {
				return err
			}
			d.loop.Pattern = 0
		}

		if !button.Rose() {
			return nil
		}
		presses++
		d.loop.Presses = presses
		flashing, flashStart = true, now
		if err := d.writePattern(led7); err != nil {
			return err
		}
		d.loop.Pattern = led7

		sc := d.screen()
		sc.decimal(8, 1, presses, 5)
		if err := sc.flush(); err != nil {
			return err
		}
		d.publish(logic.Event{AtMs: now, Type: logic.EventPress, Count: presses})
		return nil
	}); err != nil {
		return err
	}

	return d.sched.Register("stats", d.cfg.Intervals.StatsMs, func(now uint64) error {
		up := d.uptimeSec(now)
		var perMin uint32
		if up > 0 {
			perMin = uint32(uint64(presses) * 60 / uint64(up))
		}

		sc := d.screen()
		sc.text(0, 2, "Uptime: ")
		sc.decimal(8, 2, up, 5)
		sc.text(13, 2, "s")
		sc.text(0, 3, "Rate: ")
		sc.decimal(6, 3, perMin, 4)
		sc.text(10, 3, "/min")
		return sc.flush()
	})
}

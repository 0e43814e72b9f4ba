package demo

import (
	"github.com/sweeney/boardloop/internal/analog"
)

// sensorMax is the top of the simulated 10-bit sensor range.
const sensorMax = analog.MaxValue + 1

// buildMultitask runs three independent tasks at different rates: a fast
// LED toggle that also advances a simulated sensor, a sensor display and a
// statistics display.
func buildMultitask(d *Demo) error {
	var (
		leds       uint8
		sensor     uint16
		t1, t2, t3 uint32
	)

	if err := d.writePattern(leds); err != nil {
		return err
	}
	sc := d.screen()
	sc.clear()
	sc.text(0, 0, "Multitask Demo")
	if err := sc.flush(); err != nil {
		return err
	}

	if err := d.sched.Register("t1", d.cfg.Intervals.ToggleMs, func(now uint64) error {
		t1++
		leds ^= led7
		if err := d.writePattern(leds); err != nil {
			return err
		}
		sensor = (sensor + 1) % sensorMax
		d.loop.Pattern = leds
		d.loop.Sensor = sensor
		return nil
	}); err != nil {
		return err
	}

	if err := d.sched.Register("t2", d.cfg.Intervals.SensorMs, func(now uint64) error {
		t2++
		sc := d.screen()
		sc.text(0, 1, "Sensor: ")
		sc.decimal(8, 1, uint32(sensor>>2), 3)
		return sc.flush()
	}); err != nil {
		return err
	}

	return d.sched.Register("t3", d.cfg.Intervals.StatsMs, func(now uint64) error {
		t3++
		up := d.uptimeSec(now)

		sc := d.screen()
		sc.text(0, 2, "T1:")
		sc.decimal(3, 2, t1, 5)
		sc.text(9, 2, "T2:")
		sc.decimal(12, 2, t2, 4)
		sc.text(17, 2, "T3:")
		sc.decimal(20, 2, t3, 4)
		sc.text(0, 3, "Uptime: ")
		sc.decimal(8, 3, up, 5)
		sc.text(13, 3, "s")
		if up > 0 {
			sc.text(0, 4, "Rate/s T1:")
			sc.decimal(10, 4, t1/up, 3)
			sc.text(14, 4, "T2:")
			sc.decimal(17, 4, t2/up, 3)
		}
		return sc.flush()
	})
}

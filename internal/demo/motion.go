package demo

import (
	"errors"
	"fmt"

	"github.com/sweeney/boardloop/internal/analog"
	"github.com/sweeney/boardloop/internal/config"
	"github.com/sweeney/boardloop/internal/logic"
)

// Bubble level geometry, in pixels.
const (
	levelX      = 100
	levelY      = 36
	levelR      = 20
	bubbleR     = 3
	bubbleRange = levelR - bubbleR
)

func motionConfig(cfg *config.Config) logic.MotionConfig {
	m := cfg.Motion
	return logic.MotionConfig{Threshold: m.ThresholdCounts, LowBand: m.LowBand, HighBand: m.HighBand}
}

// buildMotion samples the accelerometer, reports motion and orientation on
// the LEDs, serial line and display, and draws a bubble level.
func buildMotion(d *Demo) error {
	if d.deps.Analog == nil || d.deps.Serial == nil {
		return errors.New("motion needs an analog reader and a serial sink")
	}
	mcfg := motionConfig(d.cfg)
	if err := mcfg.Validate(); err != nil {
		return err
	}

	state := logic.NewMotionState()
	var last logic.Verdict
	published := false

	if err := d.writePattern(0); err != nil {
		return err
	}
	sc := d.screen()
	sc.clear()
	sc.text(0, 0, "Motion Demo")
	sc.circle(levelX, levelY, levelR)
	if err := sc.flush(); err != nil {
		return err
	}

	return d.sched.Register("motion", d.cfg.Intervals.MotionMs, func(now uint64) error {
		sample, err := d.readAxes()
		if err != nil {
			return err
		}
		v := state.Update(sample, mcfg)

		var leds uint8
		if v.Motion {
			leds = 0xFF
		}
		if err := d.writePattern(leds); err != nil {
			return err
		}
		d.loop.Pattern = leds
		d.loop.HasMotion = true
		d.loop.Sample = sample
		d.loop.Verdict = v

		for _, line := range SerialLines(sample, v) {
			if err := d.deps.Serial.WriteLine(line); err != nil {
				return fmt.Errorf("serial: %w", err)
			}
		}

		bx, by := bubble(sample)
		sc := d.screen()
		sc.clear()
		sc.text(0, 0, "Motion Demo")
		sc.text(0, 1, fmt.Sprintf("X:%d", sample.X))
		sc.text(0, 2, fmt.Sprintf("Y:%d", sample.Y))
		sc.text(0, 3, fmt.Sprintf("Z:%d", sample.Z))
		sc.text(0, 5, "Motion: "+yesNo(v.Motion))
		sc.text(0, 6, string(v.Orientation))
		sc.circle(levelX, levelY, levelR)
		sc.circle(bx, by, bubbleR)
		if err := sc.flush(); err != nil {
			return err
		}

		if !published || v != last {
			published, last = true, v
			d.publish(logic.Event{AtMs: now, Type: logic.EventMotion, Sample: sample, Verdict: v})
		}
		return nil
	})
}

func (d *Demo) readAxes() (logic.MotionSample, error) {
	m := d.cfg.Motion
	var axes [3]uint16
	for i, ch := range []int{m.ChannelX, m.ChannelY, m.ChannelZ} {
		v, err := d.deps.Analog.ReadChannel(ch)
		if err != nil {
			return logic.MotionSample{}, fmt.Errorf("read accelerometer: %w", err)
		}
		axes[i] = v
	}
	return logic.MotionSample{X: axes[0], Y: axes[1], Z: axes[2]}, nil
}

// SerialLines formats one sample for the serial console.
func SerialLines(s logic.MotionSample, v logic.Verdict) []string {
	return []string{
		fmt.Sprintf("X:%d Y:%d Z:%d Motion:%s", s.X, s.Y, s.Z, yesNo(v.Motion)),
		"Orientation: " + string(v.Orientation),
	}
}

// bubble maps the X/Y tilt onto the level circle.
func bubble(s logic.MotionSample) (int16, int16) {
	offset := func(v uint16) int16 {
		d := int32(v) - int32(logic.CenterSample.X)
		return int16(d * bubbleRange / (analog.MaxValue / 2))
	}
	return levelX + offset(s.X), levelY + offset(s.Y)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweeney/boardloop/internal/config"
)

func TestMultitask(t *testing.T) {
	r := newRig(t, config.DemoMultitask, nil, nil)
	r.build(t)

	r.runTo(t, 1000)

	assert.Len(t, r.port.Patterns, 11, "initial write plus ten toggles")
	assert.Equal(t, uint8(0x80), r.port.Patterns[1])
	assert.Equal(t, uint8(0x00), r.port.Patterns[10])

	loop := r.demo.Loop()
	assert.Equal(t, uint16(10), loop.Sensor)

	assert.Equal(t, "Sensor: 002", r.lcd.Line(1))
	assert.Equal(t, "T1:00010 T2:0002 T3:0001", r.lcd.Line(2))
	assert.Equal(t, "Uptime: 00001s", r.lcd.Line(3))
	assert.Equal(t, "Rate/s T1:010 T2:002", r.lcd.Line(4))
}

func TestMultitaskSensorWraps(t *testing.T) {
	r := newRig(t, config.DemoMultitask, nil, nil)
	r.cfg.Intervals.ToggleMs = 10
	r.build(t)

	r.runTo(t, 10250)
	assert.Equal(t, uint16(1), r.demo.Loop().Sensor, "1025 steps wrap at 1024")
}

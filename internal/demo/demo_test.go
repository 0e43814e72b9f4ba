package demo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sweeney/boardloop/internal/analog"
	"github.com/sweeney/boardloop/internal/clock"
	"github.com/sweeney/boardloop/internal/config"
	"github.com/sweeney/boardloop/internal/display"
	"github.com/sweeney/boardloop/internal/gpio"
	"github.com/sweeney/boardloop/internal/logic"
	"github.com/sweeney/boardloop/internal/mqtt"
	"github.com/sweeney/boardloop/internal/sched"
	"github.com/sweeney/boardloop/internal/serial"
	"github.com/sweeney/boardloop/internal/status"
)

type rig struct {
	clock  *clock.Fake
	sched  *sched.Scheduler
	cfg    *config.Config
	port   *gpio.FakePort
	adc    *analog.FakeReader
	lcd    *display.FakeSink
	serial *serial.FakeSink
	pub    *mqtt.FakePublisher
	status *status.Tracker
	demo   *Demo
}

func newRig(t *testing.T, name string, pins map[int][]bool, samples map[int][]uint16) *rig {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Demo = name

	clk := clock.NewFake(0)
	r := &rig{
		clock:  clk,
		sched:  sched.New(clk, zaptest.NewLogger(t)),
		cfg:    cfg,
		port:   gpio.NewFakePort(pins),
		adc:    analog.NewFakeReader(samples),
		lcd:    display.NewFakeSink(),
		serial: serial.NewFakeSink(),
		pub:    mqtt.NewFakePublisher(),
		status: status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "test", status.Config{Demo: name}),
	}
	return r
}

func (r *rig) build(t *testing.T) {
	t.Helper()
	d, err := Build(r.cfg.Demo, r.sched, r.cfg, r.deps(t))
	require.NoError(t, err)
	r.demo = d
}

func (r *rig) deps(t *testing.T) Deps {
	return Deps{
		Port:      r.port,
		Display:   r.lcd,
		Analog:    r.adc,
		Serial:    r.serial,
		Publisher: r.pub,
		Tracker:   r.status,
		Log:       zaptest.NewLogger(t),
		Now:       func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

// runTo advances the clock in 10ms steps, ticking at each step.
func (r *rig) runTo(t *testing.T, endMs uint64) {
	t.Helper()
	for now := r.clock.NowMs() + 10; now <= endMs; now += 10 {
		r.clock.Set(now)
		require.NoError(t, r.sched.Tick(now))
	}
}

// levels builds a pin script: n readings of each level in turn.
func levels(parts ...any) []bool {
	var out []bool
	for i := 0; i < len(parts); i += 2 {
		for n := 0; n < parts[i+1].(int); n++ {
			out = append(out, parts[i].(bool))
		}
	}
	return out
}

func TestBuildUnknownDemo(t *testing.T) {
	r := newRig(t, "snake", nil, nil)
	_, err := Build("snake", r.sched, r.cfg, r.deps(t))
	assert.ErrorIs(t, err, config.ErrUnknownDemo)
}

func TestBuildRequiresPortAndDisplay(t *testing.T) {
	r := newRig(t, config.DemoBlink, nil, nil)
	_, err := Build(config.DemoBlink, r.sched, r.cfg, Deps{Display: r.lcd})
	assert.Error(t, err)
}

func TestBuildDisplayErrorIsReturned(t *testing.T) {
	r := newRig(t, config.DemoRotation, nil, nil)
	r.lcd.Error = errors.New("bus fault")
	_, err := Build(config.DemoRotation, r.sched, r.cfg, r.deps(t))
	assert.ErrorContains(t, err, "bus fault")
}

func TestCommonTasks(t *testing.T) {
	r := newRig(t, config.DemoBlink, nil, nil)
	r.cfg.Intervals.HeartbeatMs = 1000
	r.build(t)

	var names []string
	for _, ti := range r.sched.Tasks() {
		names = append(names, ti.Name)
	}
	assert.Equal(t, []string{"blink", "status", "heartbeat"}, names)

	r.runTo(t, 1000)

	snap := r.status.Snapshot()
	assert.Equal(t, uint64(1000), snap.Loop.NowMs)
	assert.Equal(t, uint32(2), snap.Loop.Cycles)
	require.Len(t, snap.Tasks, 3)

	require.Equal(t, []string{mqtt.SystemHeartbeat}, r.pub.SystemNames())
	assert.Contains(t, string(r.pub.SystemPayloads[0]), `"event":"HEARTBEAT"`)
	assert.Contains(t, string(r.pub.SystemPayloads[0]), `"run_id":"test"`)
}

func TestNoHeartbeatWithoutPublisher(t *testing.T) {
	r := newRig(t, config.DemoBlink, nil, nil)
	deps := r.deps(t)
	deps.Publisher = nil
	_, err := Build(config.DemoBlink, r.sched, r.cfg, deps)
	require.NoError(t, err)
	assert.Equal(t, 2, r.sched.Len())
}

func TestNoCommonTasksWithoutTracker(t *testing.T) {
	r := newRig(t, config.DemoBlink, nil, nil)
	deps := r.deps(t)
	deps.Tracker = nil
	_, err := Build(config.DemoBlink, r.sched, r.cfg, deps)
	require.NoError(t, err)
	assert.Equal(t, 1, r.sched.Len())
}

func TestHeartbeatFailureStillUpdatesStatus(t *testing.T) {
	r := newRig(t, config.DemoBlink, nil, nil)
	r.cfg.Intervals.StatusMs = 10000
	r.cfg.Intervals.HeartbeatMs = 500
	r.pub.PublishSystemError = errors.New("broker down")
	r.build(t)

	r.runTo(t, 500)

	snap := r.status.Snapshot()
	assert.Equal(t, uint64(500), snap.Loop.NowMs)
	require.Len(t, snap.Tasks, 3)
	assert.Equal(t, "heartbeat", snap.Tasks[2].Name)
	assert.Empty(t, r.pub.SystemNames())
}

func TestPublishFailureDoesNotStopLoop(t *testing.T) {
	r := newRig(t, config.DemoBlink, nil, nil)
	r.pub.PublishError = errors.New("broker down")
	r.build(t)

	r.runTo(t, 1500)
	assert.Equal(t, []uint8{0x00, 0xFF, 0x00, 0xFF}, r.port.Patterns)
}

func TestBlink(t *testing.T) {
	r := newRig(t, config.DemoBlink, nil, nil)
	r.build(t)
	assert.Equal(t, "LEDs: OFF", r.lcd.Line(1))

	r.runTo(t, 500)
	assert.Equal(t, []uint8{0x00, 0xFF}, r.port.Patterns)
	assert.Equal(t, "LEDs: ON", r.lcd.Line(1))

	r.runTo(t, 1000)
	assert.Equal(t, []uint8{0x00, 0xFF, 0x00}, r.port.Patterns)
	assert.Equal(t, "LEDs: OFF", r.lcd.Line(1))
	assert.Equal(t, "Toggles: 00002", r.lcd.Line(2))
	assert.Equal(t, 2, r.pub.EventCount(logic.EventPattern))
}

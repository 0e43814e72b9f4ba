package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sweeney/boardloop/internal/clock"
	"github.com/sweeney/boardloop/internal/config"
	"github.com/sweeney/boardloop/internal/display"
	"github.com/sweeney/boardloop/internal/gpio"
	"github.com/sweeney/boardloop/internal/logic"
	"github.com/sweeney/boardloop/internal/mqtt"
	"github.com/sweeney/boardloop/internal/status"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config", "--demo", "motion")
	require.NoError(t, err)
	assert.Contains(t, out, "demo: motion")
	assert.Contains(t, out, "threshold_counts: 50")
}

func TestConfigCommandEnvOverride(t *testing.T) {
	t.Setenv("BOARDLOOP_DEBOUNCE_SETTLE_MS", "30")
	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "settle_ms: 30")
}

func TestUnknownDemoRejected(t *testing.T) {
	_, err := execute(t, "config", "--demo", "snake")
	assert.ErrorIs(t, err, config.ErrUnknownDemo)
}

func TestTasksCommand(t *testing.T) {
	out, err := execute(t, "tasks", "--demo", "rotation")
	require.NoError(t, err)
	assert.Contains(t, out, "rotation")
	assert.Contains(t, out, "button")
	assert.Contains(t, out, "rotate")
	assert.Contains(t, out, "status")
	assert.Contains(t, out, "100.0 Hz")
	assert.NotContains(t, out, "heartbeat")
}

func TestTasksCommandWithBroker(t *testing.T) {
	t.Setenv("BOARDLOOP_MQTT_BROKER", "tcp://localhost:1883")
	out, err := execute(t, "tasks", "--demo", "motion")
	require.NoError(t, err)
	assert.Contains(t, out, "motion")
	assert.Contains(t, out, "heartbeat")
	assert.Contains(t, out, "every 900s")
}

func TestRate(t *testing.T) {
	assert.Equal(t, "2.0 Hz", rate(500))
	assert.Equal(t, "1.0 Hz", rate(1000))
	assert.Equal(t, "every 5s", rate(5000))
}

func TestSignalName(t *testing.T) {
	assert.Equal(t, "SIGINT", signalName(syscall.SIGINT))
	assert.Equal(t, "SIGTERM", signalName(syscall.SIGTERM))
	assert.Equal(t, "UNKNOWN", signalName(os.Kill))
}

func simConfig(t *testing.T, demoName string) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Demo = demoName
	cfg.Sim = true
	return cfg
}

func TestPrintState(t *testing.T) {
	cfg := simConfig(t, config.DemoMotion)
	b, err := openBoard(cfg, true, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer b.Close()
	b.port.(*gpio.SimPort).Press(1, true)

	var out bytes.Buffer
	require.NoError(t, printState(&out, b, cfg.GPIO.ButtonLines, [3]int{2, 3, 4}))
	s := out.String()
	assert.Contains(t, s, "button 0")
	assert.Contains(t, s, "line 21")
	assert.Contains(t, s, "pressed")
	assert.Contains(t, s, "accel Z")
	assert.Contains(t, s, "512")
}

type loopRig struct {
	env   loopEnv
	clock *clock.Fake
	idle  chan time.Time
	sig   chan os.Signal
	pub   *mqtt.FakePublisher
	port  *gpio.FakePort
	done  chan error
}

func startLoop(ctx context.Context, t *testing.T, cfg *config.Config, port *gpio.FakePort) *loopRig {
	t.Helper()
	clk := clock.NewFake(0)
	r := &loopRig{
		clock: clk,
		idle:  make(chan time.Time),
		sig:   make(chan os.Signal, 1),
		pub:   mqtt.NewFakePublisher(),
		port:  port,
		done:  make(chan error, 1),
	}
	r.env = loopEnv{
		cfg:       cfg,
		log:       zaptest.NewLogger(t),
		clock:     clk,
		board:     &board{port: port},
		display:   display.NewFramebuffer(128, 64),
		publisher: r.pub,
		tracker:   status.NewTracker(time.Now(), "run", statusConfig(cfg)),
		idle:      r.idle,
		now:       time.Now,
	}
	go func() { r.done <- runLoop(ctx, r.env, r.sig) }()

	// The first idle receive happens after the scheduler took its epoch
	// and ran its first tick, so later clock advances count from 0.
	select {
	case r.idle <- time.Now():
	case err := <-r.done:
		r.done <- err
	}
	return r
}

// step advances the clock and lets the loop run one more tick.
func (r *loopRig) step(ms uint64) {
	r.clock.Advance(ms)
	r.idle <- time.Now()
}

func (r *loopRig) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
		return nil
	}
}

func TestRunLoopSignalShutdown(t *testing.T) {
	cfg := simConfig(t, config.DemoRotation)
	r := startLoop(context.Background(), t, cfg, gpio.NewFakePort(map[int][]bool{0: {false}}))

	for i := 0; i < 50; i++ {
		r.step(10)
	}
	r.sig <- syscall.SIGTERM
	require.NoError(t, r.wait(t))

	assert.Equal(t, []string{mqtt.SystemStartup, mqtt.SystemShutdown}, r.pub.SystemNames())
	shutdown := r.pub.SystemEvents[1]
	assert.Equal(t, "SIGTERM", shutdown.Reason)
	assert.True(t, shutdown.Retained)
	assert.Contains(t, string(shutdown.RawPayload), `"reason":"SIGTERM"`)

	assert.Equal(t, []uint8{0x7F, 0xBF}, r.port.Patterns)
	assert.Equal(t, 1, r.pub.EventCount(logic.EventPattern))
}

func TestRunLoopContextCancel(t *testing.T) {
	cfg := simConfig(t, config.DemoBlink)
	ctx, cancel := context.WithCancel(context.Background())
	r := startLoop(ctx, t, cfg, gpio.NewFakePort(nil))
	r.step(100)
	cancel()

	require.NoError(t, r.wait(t))
	assert.Equal(t, []string{mqtt.SystemStartup, mqtt.SystemShutdown}, r.pub.SystemNames())
	assert.Equal(t, "CANCELLED", r.pub.SystemEvents[1].Reason)
}

func TestRunLoopTaskFault(t *testing.T) {
	cfg := simConfig(t, config.DemoRotation)
	port := gpio.NewFakePort(map[int][]bool{0: {false}})
	port.ReadError = errors.New("line busy")
	r := startLoop(context.Background(), t, cfg, port)

	r.step(10)
	err := r.wait(t)
	require.Error(t, err)
	assert.ErrorContains(t, err, "line busy")

	require.Equal(t, []string{mqtt.SystemStartup, mqtt.SystemShutdown}, r.pub.SystemNames())
	assert.Equal(t, reasonFault, r.pub.SystemEvents[1].Reason)
}

func TestRunLoopBuildError(t *testing.T) {
	cfg := simConfig(t, config.DemoMotion)
	r := startLoop(context.Background(), t, cfg, gpio.NewFakePort(nil))

	assert.Error(t, r.wait(t), "motion without an ADC cannot be built")
	assert.Empty(t, r.pub.SystemNames())
}

// Package demo builds the board demonstrations as sets of scheduler tasks.
// Every demo owns one state struct shared only by its own tasks; all of
// them run on the scheduler goroutine.
package demo

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/boardloop/internal/analog"
	"github.com/sweeney/boardloop/internal/config"
	"github.com/sweeney/boardloop/internal/display"
	"github.com/sweeney/boardloop/internal/gpio"
	"github.com/sweeney/boardloop/internal/logic"
	"github.com/sweeney/boardloop/internal/mqtt"
	"github.com/sweeney/boardloop/internal/sched"
	"github.com/sweeney/boardloop/internal/serial"
	"github.com/sweeney/boardloop/internal/status"
)

// Deps are the peripherals and outputs a demo drives.
type Deps struct {
	Port    gpio.Port
	Display display.Sink
	// Analog and Serial are only used by the motion demo.
	Analog analog.Reader
	Serial serial.Sink
	// Publisher and Tracker are optional.
	Publisher mqtt.Publisher
	Tracker   *status.Tracker
	Log       *zap.Logger
	// Now stamps heartbeat events. Defaults to time.Now.
	Now func() time.Time
}

// Demo is a built demonstration registered on a scheduler.
type Demo struct {
	name  string
	cfg   *config.Config
	deps  Deps
	sched *sched.Scheduler
	log   *zap.Logger

	// loop is the state mirrored into the status tracker.
	loop status.Loop
}

type builder func(d *Demo) error

var builders = map[string]builder{
	config.DemoBlink:     buildBlink,
	config.DemoRotation:  buildRotation,
	config.DemoCounter:   buildCounter,
	config.DemoMultitask: buildMultitask,
	config.DemoMotion:    buildMotion,
}

// Build registers the tasks of the named demo on s, followed by the status
// and heartbeat tasks. Initial output (display header, first pattern) is
// written here.
func Build(name string, s *sched.Scheduler, cfg *config.Config, deps Deps) (*Demo, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", config.ErrUnknownDemo, name)
	}
	if deps.Port == nil || deps.Display == nil {
		return nil, fmt.Errorf("demo %s: port and display are required", name)
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	d := &Demo{
		name:  name,
		cfg:   cfg,
		deps:  deps,
		sched: s,
		log:   deps.Log.With(zap.String("demo", name)),
	}
	if err := b(d); err != nil {
		return nil, fmt.Errorf("demo %s: %w", name, err)
	}
	if err := d.registerCommon(); err != nil {
		return nil, fmt.Errorf("demo %s: %w", name, err)
	}

	d.log.Info("demo ready", zap.Int("tasks", s.Len()))
	return d, nil
}

func (d *Demo) Name() string { return d.name }

// Loop returns the demo state as last mirrored to the tracker.
func (d *Demo) Loop() status.Loop { return d.loop }

func (d *Demo) registerCommon() error {
	if d.deps.Tracker == nil {
		return nil
	}
	if err := d.sched.Register("status", d.cfg.Intervals.StatusMs, func(now uint64) error {
		d.pushStatus(now)
		return nil
	}); err != nil {
		return err
	}
	if d.deps.Publisher == nil || d.cfg.Intervals.HeartbeatMs == 0 {
		return nil
	}
	return d.sched.Register("heartbeat", d.cfg.Intervals.HeartbeatMs, d.heartbeat)
}

// pushStatus mirrors the loop state and task table into the tracker.
func (d *Demo) pushStatus(now uint64) {
	d.loop.NowMs = now
	d.deps.Tracker.Update(d.loop, d.sched.Tasks())
}

func (d *Demo) heartbeat(now uint64) error {
	d.pushStatus(now)
	payload := status.FormatStatusEvent(d.deps.Tracker.Snapshot(), mqtt.SystemHeartbeat, "")
	err := d.deps.Publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  d.deps.Now(),
		Event:      mqtt.SystemHeartbeat,
		RawPayload: payload,
	})
	if err != nil {
		d.log.Warn("publish heartbeat failed", zap.Error(err))
	}
	return nil
}

// publish sends a demo event. Publish failures never stop the loop.
func (d *Demo) publish(ev logic.Event) {
	if d.deps.Publisher == nil {
		return
	}
	if err := d.deps.Publisher.Publish(ev); err != nil {
		d.log.Warn("publish failed", zap.String("event", string(ev.Type)), zap.Error(err))
	}
}

// uptimeSec is the time since the scheduler epoch, in whole seconds.
func (d *Demo) uptimeSec(now uint64) uint32 {
	return uint32((now - d.sched.EpochMs()) / 1000)
}

// readButton samples the configured button through deb and mirrors the
// stable level into the loop state.
func (d *Demo) readButton(deb *logic.Debouncer, now uint64) error {
	raw, err := d.deps.Port.ReadPin(d.cfg.GPIO.Button)
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	d.loop.Button = deb.Sample(raw, now)
	return nil
}

func (d *Demo) writePattern(p uint8) error {
	if err := d.deps.Port.WritePattern(p); err != nil {
		return fmt.Errorf("write leds: %w", err)
	}
	return nil
}

// screen collects display writes so a task can report the first error.
type screen struct {
	sink display.Sink
	err  error
}

func (d *Demo) screen() *screen {
	return &screen{sink: d.deps.Display}
}

func (s *screen) clear() {
	if s.err == nil {
		s.err = s.sink.Clear()
	}
}

func (s *screen) text(col, row int, text string) {
	if s.err == nil {
		s.err = s.sink.WriteText(col, row, text)
	}
}

func (s *screen) decimal(col, row int, v uint32, digits int) {
	if s.err == nil {
		s.err = s.sink.WriteDecimal(col, row, v, digits)
	}
}

func (s *screen) circle(x, y, r int16) {
	if s.err == nil {
		s.err = s.sink.Circle(x, y, r)
	}
}

func (s *screen) flush() error {
	if s.err == nil {
		s.err = s.sink.Flush()
	}
	if s.err != nil {
		return fmt.Errorf("display: %w", s.err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/boardloop/internal/clock"
	"github.com/sweeney/boardloop/internal/config"
	"github.com/sweeney/boardloop/internal/demo"
	"github.com/sweeney/boardloop/internal/display"
	"github.com/sweeney/boardloop/internal/mqtt"
	"github.com/sweeney/boardloop/internal/sched"
	"github.com/sweeney/boardloop/internal/status"
	"github.com/sweeney/boardloop/internal/web"
)

// Shutdown reason when the loop stops on a task fault.
const reasonFault = "FAULT"

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the selected demo until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.String("broker", "", "MQTT broker URL (empty disables publishing)")
	f.String("http", ":8080", "HTTP status address (empty disables)")
	_ = a.v.BindPFlag("mqtt.broker", f.Lookup("broker"))
	_ = a.v.BindPFlag("http.addr", f.Lookup("http"))
	return cmd
}

func (a *app) run(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	b, err := openBoard(cfg, cfg.Demo == config.DemoMotion, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("close peripherals", zap.Error(err))
		}
	}()

	fb := display.NewFramebuffer(cfg.Display.Width, cfg.Display.Height)
	tracker := status.NewTracker(time.Now(), uuid.NewString(), statusConfig(cfg))

	var publisher mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:             cfg.MQTT.Broker,
			ClientID:           cfg.MQTT.ClientID,
			BufferSize:         cfg.MQTT.BufferSize,
			OnConnectionChange: tracker.SetMQTTConnected,
		}, log.Named("mqtt"))
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(tracker, web.Options{
			Addr:         cfg.HTTP.Addr,
			PushInterval: time.Duration(cfg.HTTP.PushMs) * time.Millisecond,
			Display:      fb,
			Log:          log.Named("http"),
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warn("http shutdown", zap.Error(err))
			}
		}()
	}

	ticker := time.NewTicker(time.Duration(cfg.IdleMs) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(ctx, loopEnv{
		cfg:       cfg,
		log:       log,
		clock:     clock.NewMonotonic(),
		board:     b,
		display:   fb,
		publisher: publisher,
		tracker:   tracker,
		idle:      ticker.C,
		now:       time.Now,
	}, sigCh)
}

// loopEnv is everything runLoop needs; tests substitute fakes.
type loopEnv struct {
	cfg       *config.Config
	log       *zap.Logger
	clock     clock.Clock
	board     *board
	display   display.Sink
	publisher mqtt.Publisher // nil disables publishing
	tracker   *status.Tracker
	idle      <-chan time.Time
	now       func() time.Time
}

// runLoop builds the demo, announces STARTUP, runs the scheduler until a
// signal, ctx cancellation or a task fault, then announces SHUTDOWN.
func runLoop(ctx context.Context, env loopEnv, sig <-chan os.Signal) error {
	log := env.log
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		reason = "CANCELLED"
	)
	go func() {
		select {
		case s := <-sig:
			log.Info("received signal, shutting down", zap.String("signal", s.String()))
			mu.Lock()
			reason = signalName(s)
			mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	s := sched.New(env.clock, log.Named("sched"))
	_, err := demo.Build(env.cfg.Demo, s, env.cfg, demo.Deps{
		Port:      env.board.port,
		Display:   env.display,
		Analog:    env.board.adc,
		Serial:    env.board.serial,
		Publisher: env.publisher,
		Tracker:   env.tracker,
		Log:       log,
		Now:       env.now,
	})
	if err != nil {
		return err
	}

	env.announce(mqtt.SystemStartup, "")
	log.Info("started",
		zap.String("demo", env.cfg.Demo),
		zap.Bool("sim", env.cfg.Sim),
		zap.Uint32("idle_ms", env.cfg.IdleMs),
		zap.String("broker", env.cfg.MQTT.Broker))

	runErr := s.Run(ctx, env.idle)

	mu.Lock()
	why := reason
	mu.Unlock()
	if runErr != nil {
		why = reasonFault
	}
	env.announce(mqtt.SystemShutdown, why)
	return runErr
}

// announce publishes a retained lifecycle event carrying a full status
// snapshot.
func (env loopEnv) announce(event, reason string) {
	if env.publisher == nil {
		return
	}
	if cs, ok := env.publisher.(mqtt.ConnectionStatus); ok {
		env.tracker.SetMQTTConnected(cs.IsConnected())
	}
	snap := env.tracker.Snapshot()
	err := env.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  env.now(),
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		env.log.Warn("failed to publish system event", zap.String("event", event), zap.Error(err))
		return
	}
	env.log.Info("published system event", zap.String("event", event))
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		Demo:        cfg.Demo,
		IdleMs:      cfg.IdleMs,
		SettleMs:    cfg.Debounce.SettleMs,
		Threshold:   cfg.Motion.ThresholdCounts,
		LowBand:     cfg.Motion.LowBand,
		HighBand:    cfg.Motion.HighBand,
		HeartbeatMs: cfg.Intervals.HeartbeatMs,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	}
}

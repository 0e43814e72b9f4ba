package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/boardloop/internal/analog"
	"github.com/sweeney/boardloop/internal/clock"
	"github.com/sweeney/boardloop/internal/config"
	"github.com/sweeney/boardloop/internal/demo"
	"github.com/sweeney/boardloop/internal/display"
	"github.com/sweeney/boardloop/internal/gpio"
	"github.com/sweeney/boardloop/internal/logic"
	"github.com/sweeney/boardloop/internal/mqtt"
	"github.com/sweeney/boardloop/internal/sched"
	"github.com/sweeney/boardloop/internal/serial"
	"github.com/sweeney/boardloop/internal/status"
)

func newTasksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks the selected demo registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := demoTasks(a.cfg)
			if err != nil {
				return err
			}
			renderTasks(cmd.OutOrStdout(), a.cfg.Demo, tasks)
			return nil
		},
	}
}

// demoTasks builds the configured demo against in-memory peripherals and
// returns its task table without running it.
func demoTasks(cfg *config.Config) ([]sched.TaskInfo, error) {
	s := sched.New(clock.NewFake(0), zap.NewNop())
	deps := demo.Deps{
		Port:    gpio.NewSimPort(len(cfg.GPIO.ButtonLines), nil),
		Display: display.NewFakeSink(),
		Analog: analog.NewFakeReader(map[int][]uint16{
			cfg.Motion.ChannelX: {logic.CenterSample.X},
			cfg.Motion.ChannelY: {logic.CenterSample.Y},
			cfg.Motion.ChannelZ: {logic.CenterSample.Z},
		}),
		Serial:  serial.NewFakeSink(),
		Tracker: status.NewTracker(time.Now(), "", statusConfig(cfg)),
	}
	if cfg.MQTT.Broker != "" {
		deps.Publisher = mqtt.NewFakePublisher()
	}
	if _, err := demo.Build(cfg.Demo, s, cfg, deps); err != nil {
		return nil, err
	}
	return s.Tasks(), nil
}

func renderTasks(w io.Writer, demoName string, tasks []sched.TaskInfo) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("demo: " + demoName)
	tw.AppendHeader(table.Row{"#", "Task", "Interval", "Rate"})
	for i, t := range tasks {
		tw.AppendRow(table.Row{i + 1, t.Name, fmt.Sprintf("%dms", t.IntervalMs), rate(t.IntervalMs)})
	}
	tw.Render()
}

func rate(intervalMs uint32) string {
	hz := 1000 / float64(intervalMs)
	if hz >= 1 {
		return fmt.Sprintf("%.1f Hz", hz)
	}
	return fmt.Sprintf("every %.0fs", float64(intervalMs)/1000)
}

package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newPrintStateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "print-state",
		Short: "Read the buttons and accelerometer once and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBoard(a.cfg, true, a.log)
			if err != nil {
				return err
			}
			defer b.Close()
			return printState(cmd.OutOrStdout(), b, a.cfg.GPIO.ButtonLines, [3]int{
				a.cfg.Motion.ChannelX, a.cfg.Motion.ChannelY, a.cfg.Motion.ChannelZ,
			})
		},
	}
}

// printState reads every button and the three accelerometer channels.
func printState(w io.Writer, b *board, buttonLines []int, axes [3]int) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Input", "Source", "Value"})

	for id, line := range buttonLines {
		pressed, err := b.port.ReadPin(id)
		if err != nil {
			return fmt.Errorf("read button %d: %w", id, err)
		}
		state := "released"
		if pressed {
			state = "pressed"
		}
		tw.AppendRow(table.Row{fmt.Sprintf("button %d", id), fmt.Sprintf("line %d", line), state})
	}

	for i, ch := range axes {
		v, err := b.adc.ReadChannel(ch)
		if err != nil {
			return fmt.Errorf("read channel %d: %w", ch, err)
		}
		tw.AppendRow(table.Row{"accel " + string(rune('X'+i)), fmt.Sprintf("adc %d", ch), v})
	}

	tw.Render()
	return nil
}

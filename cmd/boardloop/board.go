package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sweeney/boardloop/internal/analog"
	"github.com/sweeney/boardloop/internal/config"
	"github.com/sweeney/boardloop/internal/gpio"
	"github.com/sweeney/boardloop/internal/logic"
	"github.com/sweeney/boardloop/internal/serial"
)

// board holds the opened peripherals.
type board struct {
	port   gpio.Port
	adc    analog.Reader
	serial serial.Sink
	close  []func() error
}

// openBoard opens the port and, when withAnalog is set, the ADC and serial
// line. In sim mode the port and ADC are in memory and the accelerometer
// rests at its centre reading.
func openBoard(cfg *config.Config, withAnalog bool, log *zap.Logger) (*board, error) {
	b := &board{}

	if cfg.Sim {
		b.port = gpio.NewSimPort(len(cfg.GPIO.ButtonLines), log.Named("gpio"))
		if withAnalog {
			m := cfg.Motion
			c := logic.CenterSample
			b.adc = analog.NewFakeReader(map[int][]uint16{
				m.ChannelX: {c.X},
				m.ChannelY: {c.Y},
				m.ChannelZ: {c.Z},
			})
		}
		if err := b.openSerial(cfg, withAnalog); err != nil {
			return nil, err
		}
		return b, nil
	}

	port, err := gpio.NewRealPort(gpio.Config{
		Chip:            cfg.GPIO.Chip,
		LEDLines:        cfg.GPIO.LEDLines,
		ButtonLines:     cfg.GPIO.ButtonLines,
		LEDActiveLow:    cfg.GPIO.LEDActiveLow,
		ButtonActiveLow: cfg.GPIO.ButtonActiveLow,
	})
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	b.port = port
	b.close = append(b.close, port.Close)

	if !withAnalog {
		return b, nil
	}

	adc, err := analog.NewIIOReader(cfg.Analog.Device, cfg.Analog.Bits)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("init adc: %w", err)
	}
	b.adc = adc
	b.close = append(b.close, adc.Close)

	if err := b.openSerial(cfg, withAnalog); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// openSerial opens the serial line, stdout unless a path is configured.
func (b *board) openSerial(cfg *config.Config, needed bool) error {
	if !needed {
		return nil
	}
	line, err := serial.Open(cfg.Serial.Path)
	if err != nil {
		return fmt.Errorf("open serial: %w", err)
	}
	b.serial = line
	b.close = append(b.close, line.Close)
	return nil
}

// Close releases peripherals in reverse order of opening.
func (b *board) Close() error {
	var errs []error
	for i := len(b.close) - 1; i >= 0; i-- {
		if err := b.close[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.close = nil
	return errors.Join(errs...)
}

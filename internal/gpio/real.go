//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPort drives actual hardware through the Linux GPIO character device.
type RealPort struct {
	chip    *gpiocdev.Chip
	leds    *gpiocdev.Lines
	buttons []*gpiocdev.Line
	cfg     Config
}

// NewRealPort requests the configured LED output lines and button input lines.
func NewRealPort(cfg Config) (*RealPort, error) {
	if len(cfg.LEDLines) != LEDCount {
		return nil, fmt.Errorf("gpio: need %d LED lines, got %d", LEDCount, len(cfg.LEDLines))
	}

	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	// Start with every LED dark.
	leds, err := chip.RequestLines(cfg.LEDLines, gpiocdev.AsOutput(levels(0, cfg.LEDActiveLow)...))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED lines %v: %w", cfg.LEDLines, err)
	}

	p := &RealPort{chip: chip, leds: leds, cfg: cfg}

	// Buttons are switches to ground on most boards, so pull the idle level up.
	pull := gpiocdev.WithPullDown
	if cfg.ButtonActiveLow {
		pull = gpiocdev.WithPullUp
	}
	for _, offset := range cfg.ButtonLines {
		line, err := chip.RequestLine(offset, gpiocdev.AsInput, pull)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request button line %d: %w", offset, err)
		}
		p.buttons = append(p.buttons, line)
	}

	return p, nil
}

// WritePattern drives the LED lines.
func (p *RealPort) WritePattern(pattern uint8) error {
	if err := p.leds.SetValues(levels(pattern, p.cfg.LEDActiveLow)); err != nil {
		return fmt.Errorf("write LED pattern %#02x: %w", pattern, err)
	}
	return nil
}

// ReadPin returns the logical level of a button.
func (p *RealPort) ReadPin(id int) (bool, error) {
	if id < 0 || id >= len(p.buttons) {
		return false, fmt.Errorf("%w: %d", ErrUnknownPin, id)
	}
	raw, err := p.buttons[id].Value()
	if err != nil {
		return false, fmt.Errorf("read button %d: %w", id, err)
	}
	// Active-low: raw 0 = pressed
	return (raw == 1) != p.cfg.ButtonActiveLow, nil
}

// Close turns the LEDs off and releases all lines.
// Lines are returned to inputs with pull-down to match boot defaults.
func (p *RealPort) Close() error {
	var errs []error

	if p.leds != nil {
		if err := p.leds.SetValues(levels(0, p.cfg.LEDActiveLow)); err != nil {
			errs = append(errs, fmt.Errorf("clear LEDs: %w", err))
		}
		if err := p.leds.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure LED lines: %w", err))
		}
		if err := p.leds.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED lines: %w", err))
		}
	}
	for i, line := range p.buttons {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button %d: %w", i, err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

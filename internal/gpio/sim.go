package gpio

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// SimPort is an in-memory port for running the loop without hardware.
// Writes are logged at debug level; button levels are set with Press.
// It is safe for concurrent use.
type SimPort struct {
	mu      sync.Mutex
	pattern uint8
	buttons []bool
	log     *zap.Logger
}

// NewSimPort creates a port with the given number of released buttons.
func NewSimPort(buttons int, log *zap.Logger) *SimPort {
	if log == nil {
		log = zap.NewNop()
	}
	return &SimPort{buttons: make([]bool, buttons), log: log}
}

func (p *SimPort) WritePattern(pattern uint8) error {
	p.mu.Lock()
	changed := p.pattern != pattern
	p.pattern = pattern
	p.mu.Unlock()

	if changed {
		p.log.Debug("leds", zap.String("pattern", fmt.Sprintf("%08b", pattern)))
	}
	return nil
}

func (p *SimPort) ReadPin(id int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.buttons) {
		return false, fmt.Errorf("%w: %d", ErrUnknownPin, id)
	}
	return p.buttons[id], nil
}

// Press sets the logical level of button id.
func (p *SimPort) Press(id int, pressed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id >= 0 && id < len(p.buttons) {
		p.buttons[id] = pressed
	}
}

// Pattern returns the last written pattern.
func (p *SimPort) Pattern() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pattern
}

func (p *SimPort) Close() error {
	return nil
}

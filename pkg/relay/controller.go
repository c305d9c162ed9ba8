// Package relay owns the relay state machine. Relays are mechanical: toggles
// closer together than the debounce window are refused to protect the
// contacts, and the drive lines are active-low (logical ON pulls the line
// low).
package relay

import (
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
)

// DefaultDebounceMillis is the minimum interval between two successful
// toggles of the same relay.
const DefaultDebounceMillis = 100

// Config holds the relay pin table and debounce window.
type Config struct {
	Pins           []hal.Pin
	DebounceMillis uint32
}

// Controller is the sole owner of relay state and last-toggle timestamps.
// Each relay debounces independently; toggling one never throttles another.
type Controller struct {
	cfg        Config
	hw         hal.Hardware
	states     []bool
	lastToggle []uint32
	toggled    []bool
}

// NewController creates a controller with all relays off.
func NewController(hw hal.Hardware, cfg Config) *Controller {
	if cfg.DebounceMillis == 0 {
		cfg.DebounceMillis = DefaultDebounceMillis
	}
	n := len(cfg.Pins)
	return &Controller{
		cfg:        cfg,
		hw:         hw,
		states:     make([]bool, n),
		lastToggle: make([]uint32, n),
		toggled:    make([]bool, n),
	}
}

// Begin configures the drive pins and parks every line high (off).
func (c *Controller) Begin() {
	for _, pin := range c.cfg.Pins {
		c.hw.ConfigurePin(pin, hal.PinOutput)
		c.hw.WriteDigital(pin, true)
	}
}

// Toggle flips one relay. Out-of-range indices and toggles inside the
// debounce window are silent no-ops: a bad command must never stall the
// control loop or chatter a relay.
func (c *Controller) Toggle(index int) {
	if index < 0 || index >= len(c.cfg.Pins) {
		return
	}
	now := c.hw.Millis()
	if c.toggled[index] && now-c.lastToggle[index] < c.cfg.DebounceMillis {
		return
	}

	c.states[index] = !c.states[index]
	c.hw.WriteDigital(c.cfg.Pins[index], !c.states[index])
	c.lastToggle[index] = now
	c.toggled[index] = true
}

// State reports one relay's logical state.
func (c *Controller) State(index int) bool {
	if index < 0 || index >= len(c.states) {
		return false
	}
	return c.states[index]
}

// States returns a copy of all relay states in index order.
func (c *Controller) States() []bool {
	return append([]bool(nil), c.states...)
}

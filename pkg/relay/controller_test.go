package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
)

func newTestController() (*Controller, *hal.Sim) {
	sim := hal.NewSim()
	c := NewController(sim, Config{
		Pins:           []hal.Pin{3, 4, 5},
		DebounceMillis: 100,
	})
	c.Begin()
	return c, sim
}

func TestBegin_ParksLinesHigh(t *testing.T) {
	c, sim := newTestController()

	for _, pin := range []hal.Pin{3, 4, 5} {
		mode, ok := sim.Mode(pin)
		require.True(t, ok)
		assert.Equal(t, hal.PinOutput, mode)
		assert.True(t, sim.DigitalState(pin), "relays are active low; off means line high")
	}
	assert.Equal(t, []bool{false, false, false}, c.States())
}

func TestToggle_DrivesActiveLow(t *testing.T) {
	c, sim := newTestController()

	c.Toggle(0)
	assert.True(t, c.State(0))
	assert.False(t, sim.DigitalState(3), "logical ON must pull the line low")

	sim.Advance(150)
	c.Toggle(0)
	assert.False(t, c.State(0))
	assert.True(t, sim.DigitalState(3))
}

func TestToggle_DebounceWindow(t *testing.T) {
	c, sim := newTestController()

	c.Toggle(1)
	require.True(t, c.State(1))
	writes := len(sim.Writes)

	// 50 ms after a successful toggle with a 100 ms window: no-op.
	sim.Advance(50)
	c.Toggle(1)
	assert.True(t, c.State(1), "state must be unchanged inside the debounce window")
	assert.Len(t, sim.Writes, writes, "physical line must be unchanged inside the debounce window")

	sim.Advance(50)
	c.Toggle(1)
	assert.False(t, c.State(1), "toggle at the window boundary must succeed")
}

func TestToggle_PerRelayDebounce(t *testing.T) {
	c, _ := newTestController()

	// Toggling one relay must not throttle its neighbors.
	c.Toggle(0)
	c.Toggle(1)
	c.Toggle(2)

	assert.Equal(t, []bool{true, true, true}, c.States())
}

func TestToggle_InvalidIndex(t *testing.T) {
	c, sim := newTestController()
	writes := len(sim.Writes)

	c.Toggle(-1)
	c.Toggle(3)
	c.Toggle(1000)

	assert.Equal(t, []bool{false, false, false}, c.States())
	assert.Len(t, sim.Writes, writes)
}

func TestToggle_FirstToggleAtBoot(t *testing.T) {
	// The very first toggle must not be debounced against timestamp zero.
	sim := hal.NewSim()
	c := NewController(sim, Config{Pins: []hal.Pin{3}})
	c.Begin()

	c.Toggle(0)
	assert.True(t, c.State(0))
}

func TestStates_ReturnsCopy(t *testing.T) {
	c, _ := newTestController()

	states := c.States()
	states[0] = true

	assert.False(t, c.State(0))
}

// Package controller ties the sampler, relays, calibration store, and frame
// codec into the single cooperative control loop that runs on the target.
// Nothing in here may halt: bad input from the link or the sensors degrades
// to dropped frames and sentinel readings, never to a stopped loop.
package controller

import (
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/calibration"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/protocol"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/relay"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

// DefaultSampleIntervalMillis is the snapshot tick period.
const DefaultSampleIntervalMillis = 1000

// Link is the byte-oriented serial connection to the host. machine.UART
// satisfies it on hardware; tests use an in-memory pipe.
type Link interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// Config holds loop timing.
type Config struct {
	SampleIntervalMillis uint32
}

// Controller runs the control loop: a time-gated sample/encode/write step and
// a non-blocking drain of inbound commands. Single thread of control, no
// locks; it is the only mutator of every piece of state it reaches.
type Controller struct {
	hw      hal.Hardware
	link    Link
	sampler *sensor.Sampler
	relays  *relay.Controller
	calib   *calibration.Store
	dec     *protocol.Decoder

	interval     uint32
	lastTick     uint32
	ticked       bool
	encodeErrors uint32
}

// New wires a controller. The sampler, relay controller, and calibration
// store must share the same hal.Hardware.
func New(hw hal.Hardware, link Link, sampler *sensor.Sampler, relays *relay.Controller, calib *calibration.Store, cfg Config) *Controller {
	if cfg.SampleIntervalMillis == 0 {
		cfg.SampleIntervalMillis = DefaultSampleIntervalMillis
	}
	return &Controller{
		hw:       hw,
		link:     link,
		sampler:  sampler,
		relays:   relays,
		calib:    calib,
		dec:      protocol.NewDecoder(link),
		interval: cfg.SampleIntervalMillis,
	}
}

// Begin performs boot-time setup: pin configuration and calibration load.
func (c *Controller) Begin() {
	c.relays.Begin()
	c.sampler.Begin()
	c.calib.Load()
}

// Update runs one loop iteration. Call it continuously from the main loop.
func (c *Controller) Update() {
	now := c.hw.Millis()
	if !c.ticked || now-c.lastTick >= c.interval {
		c.lastTick = now
		c.ticked = true

		snap, _ := c.sampler.Sample()
		frame, err := protocol.EncodeSnapshot(snap)
		if err != nil {
			// Channel counts overflowing the frame is a configuration
			// error; count it so the misconfiguration is observable.
			c.encodeErrors++
		} else {
			// A failed link write is indistinguishable from a lossy link;
			// the next tick sends a fresh snapshot anyway.
			_, _ = c.link.Write(frame)
		}
	}

	for {
		cmd, ok := c.dec.Next()
		if !ok {
			return
		}
		c.Dispatch(cmd)
	}
}

// Dispatch routes one decoded command. Validation lives in the components;
// unknown discriminants are ignored.
func (c *Controller) Dispatch(cmd protocol.Command) {
	switch cmd.Type {
	case protocol.CmdToggleRelay:
		c.relays.Toggle(int(cmd.RelayIndex))
	case protocol.CmdCalibratePH:
		c.calib.Calibrate(c.sampler, int(cmd.PHIndex), cmd.PHValue)
	}
}

// EncodeErrors reports how many snapshots were dropped for exceeding the
// frame capacity.
func (c *Controller) EncodeErrors() uint32 {
	return c.encodeErrors
}

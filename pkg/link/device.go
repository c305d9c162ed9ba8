// Package link is the host-side view of the controller: it speaks the wire
// protocol over a serial port (or an in-process mock) and exposes decoded
// snapshots and command writers.
package link

import (
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

// Device is the host-facing interface for a controller (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Snapshots() <-chan sensor.Snapshot
	Toggle(index int) error
	Calibrate(index int, targetPH float32) error
	IsConnected() bool
}

// Ensure both implementations satisfy Device.
var (
	_ Device = (*Serial)(nil)
	_ Device = (*Mock)(nil)
)

package link

import (
	"bufio"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/protocol"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

const (
	// DefaultBaudRate matches the controller's UART configuration.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the snapshot channel depth.
	DefaultBufferSize = 16
)

// Serial talks to a controller over a serial port.
type Serial struct {
	port       string
	baudRate   int
	bufSize    int
	phCount    int
	relayCount int

	conn      serial.Port
	snapshots chan sensor.Snapshot
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
}

// NewSerial creates a device for the given port. The channel counts must
// match the firmware's configuration or every frame will fail to decode.
func NewSerial(port string, baudRate, phCount, relayCount int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:       port,
		baudRate:   baudRate,
		bufSize:    DefaultBufferSize,
		phCount:    phCount,
		relayCount: relayCount,
		snapshots:  make(chan sensor.Snapshot, DefaultBufferSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Ports returns the names of available serial ports.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// Connect opens the port and starts the frame reader.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true
	d.done = make(chan struct{})

	go d.readFrames()

	return nil
}

// Close stops the reader and closes the port.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing serial port")
		}
		d.conn = nil
	}

	<-d.done
	d.connected = false
	close(d.snapshots)

	return nil
}

// Snapshots returns the decoded snapshot channel.
func (d *Serial) Snapshots() <-chan sensor.Snapshot {
	return d.snapshots
}

// Toggle sends a relay toggle command.
func (d *Serial) Toggle(index int) error {
	return d.send(protocol.Command{
		Type:       protocol.CmdToggleRelay,
		RelayIndex: uint32(index),
	})
}

// Calibrate sends a pH calibration command.
func (d *Serial) Calibrate(index int, targetPH float32) error {
	return d.send(protocol.Command{
		Type:    protocol.CmdCalibratePH,
		PHIndex: uint32(index),
		PHValue: targetPH,
	})
}

// IsConnected reports whether the port is open.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Serial) send(cmd protocol.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := d.conn.Write(protocol.EncodeCommand(cmd)); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// readFrames scans the port for outbound frames until the context is
// cancelled. Protocol garbage is logged and skipped; transport errors end
// the reader.
func (d *Serial) readFrames() {
	defer close(d.done)
	br := bufio.NewReader(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
		}

		snap, err := readSnapshot(br, d.phCount, d.relayCount)
		if err != nil {
			if err == errBadFrame {
				log.Debug().Msg("dropped malformed frame")
				continue
			}
			if d.ctx.Err() == nil {
				log.Error().Err(err).Msg("serial read failed")
			}
			return
		}

		select {
		case d.snapshots <- snap:
		case <-d.ctx.Done():
			return
		default:
			log.Warn().Msg("snapshot channel full, dropping snapshot")
		}
	}
}

package link

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/calibration"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/controller"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/protocol"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/relay"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

// MockConfig tunes the simulated rig.
type MockConfig struct {
	PHChannels     int
	Relays         int
	TargetPH       float32       // pH of the simulated solution
	Noise          float32       // analog noise amplitude in raw ADC counts
	SampleInterval time.Duration // snapshot tick period
}

// DefaultMockConfig simulates the reference hardware in mildly noisy water.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		PHChannels:     5,
		Relays:         5,
		TargetPH:       6.8,
		Noise:          6,
		SampleInterval: time.Second,
	}
}

// Mock runs the real controller against simulated hardware, connected to the
// host side through an in-memory duplex pipe. Unlike a canned-response fake,
// commands exercise the genuine dispatch, debounce, and calibration paths.
type Mock struct {
	cfg MockConfig

	in  *byteQueue // host to device
	out *byteQueue // device to host

	ctrl      *controller.Controller
	snapshots chan sensor.Snapshot
	accum     []byte

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
}

// NewMock assembles the simulated device.
func NewMock(cfg MockConfig) *Mock {
	if cfg.PHChannels == 0 {
		cfg = DefaultMockConfig()
	}
	if cfg.SampleInterval == 0 {
		cfg.SampleInterval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Mock{
		cfg:       cfg,
		in:        &byteQueue{},
		out:       &byteQueue{},
		snapshots: make(chan sensor.Snapshot, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	hw := newMockHardware(cfg)

	phPins := make([]hal.Pin, cfg.PHChannels)
	for i := range phPins {
		phPins[i] = hal.Pin(15 + i)
	}
	relayPins := make([]hal.Pin, cfg.Relays)
	for i := range relayPins {
		relayPins[i] = hal.Pin(3 + i)
	}

	slots := calibration.NewMemStore(cfg.PHChannels)
	store := calibration.NewStore(hw, slots, calibration.Config{
		Channels:          cfg.PHChannels,
		Samples:           10,
		SampleDelayMillis: 10,
	})
	relays := relay.NewController(hw, relay.Config{Pins: relayPins})
	sampler := sensor.NewSampler(hw, hw, relays, store, sensor.Config{
		PHPins:         phPins,
		LightPin:       hal.Pin(14),
		ADCMax:         1023,
		VRef:           5.0,
		SampleInterval: uint32(cfg.SampleInterval / time.Millisecond),
		PH: sensor.PHConfig{
			Samples:       10,
			SettleMillis:  1,
			MinValid:      3,
			RailThreshold: 100,
			VoltageMin:    0.5,
			VoltageMax:    4.5,
			Slope:         0.18,
		},
	})
	m.ctrl = controller.New(hw, &deviceLink{in: m.in, out: m.out}, sampler, relays, store, controller.Config{
		SampleIntervalMillis: uint32(cfg.SampleInterval / time.Millisecond),
	})

	return m
}

// Connect boots the simulated controller and starts its loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.ctrl.Begin()
	m.connected = true
	m.done = make(chan struct{})

	go m.pump()

	return nil
}

// Close stops the loop.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	<-m.done
	m.connected = false
	close(m.snapshots)

	return nil
}

// Snapshots returns the decoded snapshot channel.
func (m *Mock) Snapshots() <-chan sensor.Snapshot {
	return m.snapshots
}

// Toggle queues a relay toggle command frame.
func (m *Mock) Toggle(index int) error {
	return m.send(protocol.Command{
		Type:       protocol.CmdToggleRelay,
		RelayIndex: uint32(index),
	})
}

// Calibrate queues a pH calibration command frame.
func (m *Mock) Calibrate(index int, targetPH float32) error {
	return m.send(protocol.Command{
		Type:    protocol.CmdCalibratePH,
		PHIndex: uint32(index),
		PHValue: targetPH,
	})
}

// IsConnected reports whether the simulated controller is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mock) send(cmd protocol.Command) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	_, err := m.in.Write(protocol.EncodeCommand(cmd))
	return err
}

// pump steps the controller loop and relays its outbound frames to the
// snapshot channel.
func (m *Mock) pump() {
	defer close(m.done)
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.ctrl.Update()
		m.accum = append(m.accum, m.out.Drain()...)
		m.extractFrames()

		time.Sleep(2 * time.Millisecond)
	}
}

// extractFrames pulls complete outbound frames out of the accumulation
// buffer, leaving any trailing partial frame for the next pass.
func (m *Mock) extractFrames() {
	start := []byte{protocol.StartMarker0, protocol.StartMarker1}
	for {
		i := bytes.Index(m.accum, start)
		if i < 0 {
			// Keep a trailing 0xFF in case its partner arrives next pass.
			if n := len(m.accum); n > 0 && m.accum[n-1] == protocol.StartMarker0 {
				m.accum = m.accum[n-1:]
			} else {
				m.accum = nil
			}
			return
		}
		rest := m.accum[i:]
		if len(rest) < 4 {
			m.accum = rest
			return
		}
		length := int(rest[2]) | int(rest[3])<<8
		if length > protocol.MaxPayload {
			m.accum = rest[2:]
			continue
		}
		total := 4 + length + 2
		if len(rest) < total {
			m.accum = rest
			return
		}
		payload := rest[4 : 4+length]
		if rest[total-2] == protocol.EndMarker0 && rest[total-1] == protocol.EndMarker1 {
			if snap, err := protocol.DecodeSnapshot(payload, m.cfg.PHChannels, m.cfg.Relays); err == nil {
				select {
				case m.snapshots <- snap:
				default:
				}
			}
		}
		m.accum = append([]byte(nil), rest[total:]...)
	}
}

// mockHardware simulates the analog front end: pH probes read a voltage
// consistent with the configured solution pH plus sinusoidal noise, the
// light sensor tracks a slow day cycle, and time is real time.
type mockHardware struct {
	cfg   MockConfig
	start time.Time
}

func newMockHardware(cfg MockConfig) *mockHardware {
	return &mockHardware{cfg: cfg, start: time.Now()}
}

func (h *mockHardware) ConfigurePin(hal.Pin, hal.PinMode) {}

func (h *mockHardware) WriteDigital(hal.Pin, bool) {}

func (h *mockHardware) ReadAnalog(pin hal.Pin) uint16 {
	t := float32(time.Since(h.start).Seconds())
	noise := math32.Sin(t*37) * h.cfg.Noise

	if pin == 14 {
		// LDR: slow swing around two thirds brightness.
		raw := 680 + 120*math32.Sin(t/30) + noise
		return clampRaw(raw)
	}

	// pH probe: invert the transfer function for the target pH.
	voltage := 2.5 - (h.cfg.TargetPH-7.0)*0.18
	raw := voltage*1023/5.0 + noise
	return clampRaw(raw)
}

func (h *mockHardware) Millis() uint32 {
	return uint32(time.Since(h.start) / time.Millisecond)
}

func (h *mockHardware) DelayMillis(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (h *mockHardware) ReadTemperature() float32 {
	t := float32(time.Since(h.start).Seconds())
	return 24.5 + 1.5*math32.Sin(t/60)
}

func (h *mockHardware) ReadHumidity() float32 {
	t := float32(time.Since(h.start).Seconds())
	return 62 + 5*math32.Cos(t/90)
}

func clampRaw(v float32) uint16 {
	if v < 0 {
		return 0
	}
	if v > 1023 {
		return 1023
	}
	return uint16(v)
}

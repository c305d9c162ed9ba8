package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
)

const (
	phPin    = hal.Pin(15)
	lightPin = hal.Pin(14)
)

type fixedMultipliers []float32

func (m fixedMultipliers) Multiplier(channel int) float32 {
	return m[channel]
}

type fixedRelays []bool

func (r fixedRelays) States() []bool { return r }

func testConfig() Config {
	return Config{
		PHPins:         []hal.Pin{phPin},
		LightPin:       lightPin,
		ADCMax:         1023,
		VRef:           5.0,
		SampleInterval: 1000,
		PH: PHConfig{
			Samples:       10,
			SettleMillis:  10,
			MinValid:      3,
			RailThreshold: 100,
			VoltageMin:    0.5,
			VoltageMax:    4.5,
			Slope:         0.18,
		},
	}
}

// phFor computes the expected transfer output for a raw reading.
func phFor(raw uint16, multiplier float32) float32 {
	voltage := float32(raw) * 5.0 / 1023.0
	return 7.0 + ((2.5-voltage)/0.18)*multiplier
}

func TestReadPH_IgnoresRailClampedInputs(t *testing.T) {
	sim := hal.NewSim()
	s := NewSampler(sim, hal.FixedEnv{}, nil, fixedMultipliers{1.0}, testConfig())

	// Four disconnect artifacts, then six readings of the same raw value.
	sim.QueueAnalog(phPin, 0, 50, 100, 1023, 512, 512, 512, 512, 512, 512)

	got := s.ReadPH(0)
	require.NotEqual(t, InvalidReading, got)
	assert.InDelta(t, phFor(512, 1.0), got, 0.01, "rail-clamped samples must not affect the average")
}

func TestReadPH_MinimumValidCount(t *testing.T) {
	tests := []struct {
		name        string
		raw         []uint16
		wantInvalid bool
	}{
		{
			name:        "two valid of ten",
			raw:         []uint16{0, 0, 0, 0, 0, 0, 0, 0, 512, 512},
			wantInvalid: true,
		},
		{
			name:        "three valid of ten",
			raw:         []uint16{0, 0, 0, 0, 0, 0, 0, 512, 512, 512},
			wantInvalid: false,
		},
		{
			name:        "all rail-clamped",
			raw:         []uint16{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			wantInvalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := hal.NewSim()
			s := NewSampler(sim, hal.FixedEnv{}, nil, fixedMultipliers{1.0}, testConfig())
			sim.QueueAnalog(phPin, tt.raw...)

			got := s.ReadPH(0)
			if tt.wantInvalid {
				assert.Equal(t, InvalidReading, got)
			} else {
				assert.NotEqual(t, InvalidReading, got)
			}
		})
	}
}

func TestReadPH_VoltageWindow(t *testing.T) {
	sim := hal.NewSim()
	s := NewSampler(sim, hal.FixedEnv{}, nil, fixedMultipliers{1.0}, testConfig())

	// 950 raw is ~4.64 V: past the rail threshold but outside the
	// electrochemical window, so still rejected.
	sim.QueueAnalog(phPin, 950, 950, 950, 950, 950, 950, 950, 950, 950, 950)

	assert.Equal(t, InvalidReading, s.ReadPH(0))
}

func TestReadPH_AppliesCalibrationMultiplier(t *testing.T) {
	sim := hal.NewSim()
	s := NewSampler(sim, hal.FixedEnv{}, nil, fixedMultipliers{2.0}, testConfig())
	sim.SetAnalog(phPin, 470)

	got := s.ReadPH(0)
	require.NotEqual(t, InvalidReading, got)
	assert.InDelta(t, phFor(470, 2.0), got, 0.01)
}

func TestReadPH_InvalidChannel(t *testing.T) {
	sim := hal.NewSim()
	s := NewSampler(sim, hal.FixedEnv{}, nil, fixedMultipliers{1.0}, testConfig())

	assert.Equal(t, InvalidReading, s.ReadPH(-1))
	assert.Equal(t, InvalidReading, s.ReadPH(7))
}

func TestSample_Contents(t *testing.T) {
	sim := hal.NewSim()
	env := hal.FixedEnv{Temperature: 23.5, Humidity: 61.0}
	s := NewSampler(sim, env, fixedRelays{true, false}, fixedMultipliers{1.0}, testConfig())

	sim.SetAnalog(phPin, 512)
	sim.SetAnalog(lightPin, 1023)

	snap, fresh := s.Sample()
	require.True(t, fresh)

	assert.Equal(t, float32(23.5), snap.Temperature)
	assert.Equal(t, float32(61.0), snap.Humidity)
	assert.InDelta(t, 100.0, snap.Light, 0.01)
	require.Len(t, snap.PH, 1)
	assert.InDelta(t, phFor(512, 1.0), snap.PH[0], 0.01)
	assert.Equal(t, []bool{true, false}, snap.Relays)
}

func TestSample_IntervalGating(t *testing.T) {
	cfg := testConfig()
	cfg.PH.SettleMillis = 0 // keep the virtual clock still during reads

	sim := hal.NewSim()
	s := NewSampler(sim, hal.FixedEnv{}, nil, fixedMultipliers{1.0}, cfg)
	sim.SetAnalog(phPin, 512)
	sim.SetAnalog(lightPin, 400)

	_, fresh := s.Sample()
	require.True(t, fresh)

	sim.Advance(500)
	sim.SetAnalog(lightPin, 800)
	snap, fresh := s.Sample()
	assert.False(t, fresh, "sampling inside the interval must not refresh")
	assert.InDelta(t, float32(400)*100/1023, snap.Light, 0.01, "stale snapshot must be returned unchanged")

	sim.Advance(500)
	snap, fresh = s.Sample()
	assert.True(t, fresh)
	assert.InDelta(t, float32(800)*100/1023, snap.Light, 0.01)
}

func TestLightScaling(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		want float32
	}{
		{name: "dark", raw: 0, want: 0},
		{name: "half", raw: 512, want: 50.05},
		{name: "full", raw: 1023, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := hal.NewSim()
			s := NewSampler(sim, hal.FixedEnv{}, nil, fixedMultipliers{1.0}, testConfig())
			sim.SetAnalog(lightPin, tt.raw)

			assert.InDelta(t, tt.want, s.readLight(), 0.01)
		})
	}
}

func TestSnapshotClone(t *testing.T) {
	snap := Snapshot{PH: []float32{7.0}, Relays: []bool{true}}
	clone := snap.Clone()
	clone.PH[0] = 3.0
	clone.Relays[0] = false

	assert.Equal(t, float32(7.0), snap.PH[0])
	assert.True(t, snap.Relays[0])
}

package calibration

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

// scriptedReader replays a fixed sequence of pH readings; the last value
// repeats once the script runs out.
type scriptedReader struct {
	values []float32
	at     int
}

func (r *scriptedReader) ReadPH(int) float32 {
	if r.at >= len(r.values) {
		return r.values[len(r.values)-1]
	}
	v := r.values[r.at]
	r.at++
	return v
}

func steadyReader(v float32) *scriptedReader {
	return &scriptedReader{values: []float32{v}}
}

func testStore(channels int) (*Store, *MemStore) {
	slots := NewMemStore(channels)
	s := NewStore(hal.NewSim(), slots, Config{
		Channels:          channels,
		Samples:           10,
		SampleDelayMillis: 100,
	})
	return s, slots
}

func TestLoad_ReplacesUnusableSlots(t *testing.T) {
	tests := []struct {
		name   string
		stored float32
		want   float32
	}{
		{name: "NaN", stored: math32.NaN(), want: 1.0},
		{name: "negative", stored: -1.0, want: 1.0},
		{name: "zero", stored: 0.0, want: 1.0},
		{name: "valid small", stored: 0.5, want: 0.5},
		{name: "valid", stored: 2.0, want: 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, slots := testStore(1)
			slots.WriteSlot(0, tt.stored)

			s.Load()

			assert.Equal(t, tt.want, s.Multiplier(0))
		})
	}
}

func TestCalibrate_CommitsAndPersists(t *testing.T) {
	s, slots := testStore(3)
	s.Load()

	// Reference solution at pH 7 against an average reading of 3.5.
	s.Calibrate(steadyReader(3.5), 1, 7.0)

	assert.InDelta(t, 2.0, s.Multiplier(1), 1e-6)
	assert.InDelta(t, 2.0, slots.ReadSlot(1), 1e-6, "the record must be persisted")

	// A fresh store over the same slots recovers the multiplier.
	reloaded := NewStore(hal.NewSim(), slots, Config{Channels: 3, Samples: 10})
	reloaded.Load()
	assert.InDelta(t, 2.0, reloaded.Multiplier(1), 1e-6)

	// Untouched channels persist as written (zero slot loads as identity).
	assert.Equal(t, float32(1.0), reloaded.Multiplier(0))
}

func TestCalibrate_RejectsOutOfRangeTarget(t *testing.T) {
	tests := []struct {
		name   string
		target float32
	}{
		{name: "above scale", target: 15},
		{name: "below scale", target: -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, slots := testStore(1)
			s.Load()

			s.Calibrate(steadyReader(3.5), 0, tt.target)

			assert.Equal(t, float32(1.0), s.Multiplier(0), "multiplier must be unchanged")
			assert.Equal(t, float32(0), slots.ReadSlot(0), "nothing must be persisted")
		})
	}
}

func TestCalibrate_RejectsInvalidIndex(t *testing.T) {
	s, _ := testStore(2)
	s.Load()

	s.Calibrate(steadyReader(3.5), -1, 7.0)
	s.Calibrate(steadyReader(3.5), 2, 7.0)

	assert.Equal(t, []float32{1.0, 1.0}, s.Multipliers())
}

func TestCalibrate_RequiresHalfValidReadings(t *testing.T) {
	s, _ := testStore(1)
	s.Load()

	// Four valid of ten attempted: below the half threshold.
	r := &scriptedReader{values: []float32{
		sensor.InvalidReading, sensor.InvalidReading, sensor.InvalidReading,
		sensor.InvalidReading, sensor.InvalidReading, sensor.InvalidReading,
		3.5, 3.5, 3.5, 3.5,
	}}
	s.Calibrate(r, 0, 7.0)
	assert.Equal(t, float32(1.0), s.Multiplier(0))

	// Five valid of ten: exactly at the threshold, commits.
	r = &scriptedReader{values: []float32{
		sensor.InvalidReading, sensor.InvalidReading, sensor.InvalidReading,
		sensor.InvalidReading, sensor.InvalidReading,
		3.5, 3.5, 3.5, 3.5, 3.5,
	}}
	s.Calibrate(r, 0, 7.0)
	assert.InDelta(t, 2.0, s.Multiplier(0), 1e-6)
}

func TestCalibrate_GuardsZeroAverage(t *testing.T) {
	s, _ := testStore(1)
	s.Load()

	s.Calibrate(steadyReader(0), 0, 7.0)

	assert.Equal(t, float32(1.0), s.Multiplier(0))
}

func TestMultiplier_OutOfRangeChannel(t *testing.T) {
	s, _ := testStore(1)
	require.Equal(t, DefaultMultiplier, s.Multiplier(-1))
	require.Equal(t, DefaultMultiplier, s.Multiplier(5))
}

func TestMemStore_Bounds(t *testing.T) {
	m := NewMemStore(2)

	m.WriteSlot(-1, 5)
	m.WriteSlot(2, 5)

	assert.Equal(t, float32(0), m.ReadSlot(-1))
	assert.Equal(t, float32(0), m.ReadSlot(2))
	assert.Equal(t, float32(0), m.ReadSlot(0))
}

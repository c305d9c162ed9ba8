// Package calibration persists the per-channel pH calibration multipliers
// and implements the two-phase recalibration procedure: collect evidence
// against the current multiplier, then commit and persist. A single noisy
// excursion can therefore never corrupt a stored multiplier.
package calibration

import (
	"github.com/chewxy/math32"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

// DefaultMultiplier is the identity multiplier used when a stored slot is
// absent or unusable.
const DefaultMultiplier float32 = 1.0

// SlotStore abstracts the non-volatile float32 slots. The layout is a
// contiguous array, one slot per pH channel, no header, no checksum. Writes
// are assumed atomic per slot; one corrupted channel never blocks another.
type SlotStore interface {
	ReadSlot(offset int) float32
	WriteSlot(offset int, value float32)
}

// PHReader takes one filtered pH reading for a channel, using whatever
// multiplier is currently in effect.
type PHReader interface {
	ReadPH(channel int) float32
}

// Config holds the calibration layout and sampling parameters.
type Config struct {
	Channels          int
	BaseOffset        int    // slot offset of channel 0
	Samples           int    // readings attempted per calibration
	SampleDelayMillis uint32 // spacing between readings
}

// Store owns the calibration record and is the sole writer of the persisted
// slots.
type Store struct {
	cfg         Config
	hw          hal.Hardware
	slots       SlotStore
	multipliers []float32
}

// NewStore creates a store with identity multipliers; call Load to pick up
// the persisted record.
func NewStore(hw hal.Hardware, slots SlotStore, cfg Config) *Store {
	if cfg.Samples == 0 {
		cfg.Samples = 10
	}
	m := make([]float32, cfg.Channels)
	for i := range m {
		m[i] = DefaultMultiplier
	}
	return &Store{cfg: cfg, hw: hw, slots: slots, multipliers: m}
}

// Load reads every channel's multiplier from storage. A slot that is NaN or
// non-positive is treated as absent and replaced with the identity
// multiplier.
func (s *Store) Load() {
	for i := 0; i < s.cfg.Channels; i++ {
		v := s.slots.ReadSlot(s.cfg.BaseOffset + i)
		if math32.IsNaN(v) || v <= 0 {
			v = DefaultMultiplier
		}
		s.multipliers[i] = v
	}
}

// Save writes the whole record back to storage.
func (s *Store) Save() {
	for i := 0; i < s.cfg.Channels; i++ {
		s.slots.WriteSlot(s.cfg.BaseOffset+i, s.multipliers[i])
	}
}

// Multiplier returns the current multiplier for a channel.
func (s *Store) Multiplier(channel int) float32 {
	if channel < 0 || channel >= len(s.multipliers) {
		return DefaultMultiplier
	}
	return s.multipliers[channel]
}

// Multipliers returns a copy of the whole record.
func (s *Store) Multipliers() []float32 {
	return append([]float32(nil), s.multipliers...)
}

// Calibrate recomputes one channel's multiplier against a reference solution
// of known pH. Invalid inputs are silent no-ops. Readings are taken through
// the current multiplier; at least half must be valid and their average
// non-zero before anything is committed and persisted.
func (s *Store) Calibrate(reader PHReader, index int, targetPH float32) {
	if index < 0 || index >= s.cfg.Channels {
		return
	}
	if targetPH < 0 || targetPH > 14 {
		return
	}

	var sum float32
	valid := 0
	for i := 0; i < s.cfg.Samples; i++ {
		if r := reader.ReadPH(index); r != sensor.InvalidReading {
			sum += r
			valid++
		}
		s.hw.DelayMillis(s.cfg.SampleDelayMillis)
	}

	if valid < s.cfg.Samples/2 {
		return
	}
	avg := sum / float32(valid)
	if avg == 0 {
		return
	}

	s.multipliers[index] = targetPH / avg
	s.Save()
}

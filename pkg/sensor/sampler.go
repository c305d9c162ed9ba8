package sensor

import (
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
)

// Config holds the acquisition parameters for one sampler.
type Config struct {
	PHPins         []hal.Pin
	LightPin       hal.Pin
	ADCMax         uint16  // full-scale raw ADC value (1023 for 10-bit)
	VRef           float32 // ADC reference voltage
	SampleInterval uint32  // minimum ms between snapshots
	PH             PHConfig
}

// PHConfig tunes the per-channel pH rejection pipeline.
type PHConfig struct {
	Samples       int     // raw reads attempted per channel
	SettleMillis  uint32  // delay between raw reads
	MinValid      int     // surviving readings required for a usable average
	RailThreshold uint16  // raw values at or below this are disconnect artifacts
	VoltageMin    float32 // electrochemical window lower bound
	VoltageMax    float32 // electrochemical window upper bound
	Slope         float32 // probe transfer slope, V per pH unit
}

// MultiplierSource supplies the current calibration multiplier per channel.
type MultiplierSource interface {
	Multiplier(channel int) float32
}

// RelaySource reports the current relay states for inclusion in snapshots.
type RelaySource interface {
	States() []bool
}

// Sampler acquires snapshots. It owns the raw analog history only for the
// duration of one read; the snapshot is the only thing that escapes.
type Sampler struct {
	cfg    Config
	hw     hal.Hardware
	env    hal.EnvSensor
	mult   MultiplierSource
	relays RelaySource

	last    Snapshot
	lastAt  uint32
	sampled bool
}

// NewSampler wires a sampler to its hardware and collaborators.
func NewSampler(hw hal.Hardware, env hal.EnvSensor, relays RelaySource, mult MultiplierSource, cfg Config) *Sampler {
	return &Sampler{cfg: cfg, hw: hw, env: env, mult: mult, relays: relays}
}

// Begin configures the analog pins for input.
func (s *Sampler) Begin() {
	s.hw.ConfigurePin(s.cfg.LightPin, hal.PinInput)
	for _, pin := range s.cfg.PHPins {
		s.hw.ConfigurePin(pin, hal.PinInput)
	}
}

// Sample produces a fresh snapshot, at most once per SampleInterval. Calling
// earlier than the interval is a caller error and returns the previous
// snapshot with fresh=false.
func (s *Sampler) Sample() (snap Snapshot, fresh bool) {
	now := s.hw.Millis()
	if s.sampled && now-s.lastAt < s.cfg.SampleInterval {
		return s.last, false
	}
	s.lastAt = now
	s.sampled = true

	snap = Snapshot{
		Temperature: s.env.ReadTemperature(),
		Humidity:    s.env.ReadHumidity(),
		Light:       s.readLight(),
		PH:          make([]float32, len(s.cfg.PHPins)),
	}
	for i := range s.cfg.PHPins {
		snap.PH[i] = s.ReadPH(i)
	}
	if s.relays != nil {
		snap.Relays = append([]bool(nil), s.relays.States()...)
	}
	s.last = snap
	return snap, true
}

// ReadPH reads one channel through the rejection pipeline: rail-clamped raw
// values, voltages outside the electrochemical window, and transfer results
// outside the pH scale are all discarded before averaging. Fewer than
// MinValid survivors means the average cannot be trusted and the channel
// reports InvalidReading instead.
func (s *Sampler) ReadPH(channel int) float32 {
	if channel < 0 || channel >= len(s.cfg.PHPins) {
		return InvalidReading
	}
	pin := s.cfg.PHPins[channel]
	multiplier := float32(1.0)
	if s.mult != nil {
		multiplier = s.mult.Multiplier(channel)
	}

	var sum float32
	valid := 0
	for i := 0; i < s.cfg.PH.Samples; i++ {
		raw := s.hw.ReadAnalog(pin)

		if raw == 0 || raw >= s.cfg.ADCMax || raw <= s.cfg.PH.RailThreshold {
			// Disconnected probes read at or near the rails.
			s.hw.DelayMillis(s.cfg.PH.SettleMillis)
			continue
		}

		voltage := float32(raw) * s.cfg.VRef / float32(s.cfg.ADCMax)
		if voltage < s.cfg.PH.VoltageMin || voltage > s.cfg.PH.VoltageMax {
			s.hw.DelayMillis(s.cfg.PH.SettleMillis)
			continue
		}

		ph := 7.0 + ((s.cfg.VRef/2-voltage)/s.cfg.PH.Slope)*multiplier
		if ph >= 0 && ph <= 14 {
			sum += ph
			valid++
		}
		s.hw.DelayMillis(s.cfg.PH.SettleMillis)
	}

	if valid < s.cfg.PH.MinValid {
		return InvalidReading
	}
	return sum / float32(valid)
}

// readLight scales one raw read to [0, 100].
func (s *Sampler) readLight() float32 {
	raw := s.hw.ReadAnalog(s.cfg.LightPin)
	return float32(raw) * 100.0 / float32(s.cfg.ADCMax)
}

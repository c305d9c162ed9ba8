package hal

// Sim is a scripted in-memory Hardware implementation. Analog pins replay a
// queued sequence of readings (the last value repeats once the queue drains),
// digital writes and pin configurations are recorded, and time is a virtual
// clock advanced by DelayMillis or by the test directly.
type Sim struct {
	analog   map[Pin][]uint16
	analogAt map[Pin]int
	digital  map[Pin]bool
	modes    map[Pin]PinMode
	now      uint32

	// Writes records every digital write in order, for asserting on drive
	// sequences rather than just final pin state.
	Writes []DigitalWrite
}

// DigitalWrite is one recorded WriteDigital call.
type DigitalWrite struct {
	Pin  Pin
	High bool
}

// NewSim creates an empty simulator with the clock at zero.
func NewSim() *Sim {
	return &Sim{
		analog:   make(map[Pin][]uint16),
		analogAt: make(map[Pin]int),
		digital:  make(map[Pin]bool),
		modes:    make(map[Pin]PinMode),
	}
}

// QueueAnalog appends readings to a pin's replay queue.
func (s *Sim) QueueAnalog(pin Pin, values ...uint16) {
	s.analog[pin] = append(s.analog[pin], values...)
}

// SetAnalog replaces a pin's queue with a single steady value.
func (s *Sim) SetAnalog(pin Pin, value uint16) {
	s.analog[pin] = []uint16{value}
	s.analogAt[pin] = 0
}

// Advance moves the virtual clock forward.
func (s *Sim) Advance(ms uint32) {
	s.now += ms
}

// DigitalState reports the last driven level of a pin. Pins never written
// read as low.
func (s *Sim) DigitalState(pin Pin) bool {
	return s.digital[pin]
}

// Mode reports the configured direction of a pin.
func (s *Sim) Mode(pin Pin) (PinMode, bool) {
	m, ok := s.modes[pin]
	return m, ok
}

func (s *Sim) ConfigurePin(pin Pin, mode PinMode) {
	s.modes[pin] = mode
}

func (s *Sim) ReadAnalog(pin Pin) uint16 {
	q := s.analog[pin]
	if len(q) == 0 {
		return 0
	}
	i := s.analogAt[pin]
	if i >= len(q) {
		i = len(q) - 1
	} else {
		s.analogAt[pin] = i + 1
	}
	return q[i]
}

func (s *Sim) WriteDigital(pin Pin, high bool) {
	s.digital[pin] = high
	s.Writes = append(s.Writes, DigitalWrite{Pin: pin, High: high})
}

func (s *Sim) Millis() uint32 {
	return s.now
}

func (s *Sim) DelayMillis(ms uint32) {
	s.now += ms
}

// FixedEnv is an EnvSensor returning constant readings.
type FixedEnv struct {
	Temperature float32
	Humidity    float32
}

func (e FixedEnv) ReadTemperature() float32 { return e.Temperature }
func (e FixedEnv) ReadHumidity() float32    { return e.Humidity }

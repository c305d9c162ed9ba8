package hal

// Pin identifies a hardware pin. Analog and digital pins share the same
// number space; the pin tables in the configuration decide which is which.
type Pin uint8

// PinMode selects the direction of a pin.
type PinMode uint8

const (
	// PinInput configures a pin for reading.
	PinInput PinMode = iota
	// PinOutput configures a pin for driving.
	PinOutput
)

// Hardware is the capability surface the controller needs from the target.
// The firmware backs it with the machine package; tests and the mock device
// back it with Sim. Nothing else in the repository touches registers.
type Hardware interface {
	// ConfigurePin sets the direction of a pin.
	ConfigurePin(pin Pin, mode PinMode)
	// ReadAnalog returns the raw ADC value for a pin.
	ReadAnalog(pin Pin) uint16
	// WriteDigital drives a pin high or low.
	WriteDigital(pin Pin, high bool)
	// Millis returns milliseconds since boot. Wraps around; callers must
	// compare with unsigned subtraction.
	Millis() uint32
	// DelayMillis blocks for the given number of milliseconds. Acceptable on
	// this target: the control loop is the only thread of execution.
	DelayMillis(ms uint32)
}

// EnvSensor reads the environmental (temperature/humidity) sensor. Readings
// are reported as-is; a failed read is NaN, matching the DHT driver family.
type EnvSensor interface {
	ReadTemperature() float32
	ReadHumidity() float32
}

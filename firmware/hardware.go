//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/chewxy/math32"
	"tinygo.org/x/drivers/dht"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
)

// hardware backs hal.Hardware with the machine package.
type hardware struct {
	start time.Time
	adcs  map[hal.Pin]machine.ADC
}

func newHardware() *hardware {
	machine.InitADC()
	return &hardware{
		start: time.Now(),
		adcs:  make(map[hal.Pin]machine.ADC),
	}
}

func (h *hardware) ConfigurePin(pin hal.Pin, mode hal.PinMode) {
	m := machine.PinOutput
	if mode == hal.PinInput {
		m = machine.PinInput
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: m})
}

func (h *hardware) ReadAnalog(pin hal.Pin) uint16 {
	adc, ok := h.adcs[pin]
	if !ok {
		adc = machine.ADC{Pin: machine.Pin(pin)}
		adc.Configure(machine.ADCConfig{})
		h.adcs[pin] = adc
	}
	// machine.ADC.Get is left-justified to 16 bits; scale back to the
	// native 10-bit range the pipeline thresholds are written against.
	return adc.Get() >> 6
}

func (h *hardware) WriteDigital(pin hal.Pin, high bool) {
	machine.Pin(pin).Set(high)
}

func (h *hardware) Millis() uint32 {
	return uint32(time.Since(h.start) / time.Millisecond)
}

func (h *hardware) DelayMillis(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// envSensor adapts the DHT11 driver to hal.EnvSensor. Failed reads report
// NaN; the sampler forwards readings as-is.
type envSensor struct {
	dev dht.Device
}

func newEnvSensor(pin machine.Pin) *envSensor {
	return &envSensor{dev: dht.New(pin, dht.DHT11)}
}

func (e *envSensor) ReadTemperature() float32 {
	t, err := e.dev.TemperatureFloat(dht.C)
	if err != nil {
		return math32.NaN()
	}
	return t
}

func (e *envSensor) ReadHumidity() float32 {
	hum, err := e.dev.HumidityFloat()
	if err != nil {
		return math32.NaN()
	}
	return hum
}

//go:build tinygo

package main

import (
	"machine"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
)

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 1000 // snapshot period
	PH_SAMPLES         = 10   // raw reads per pH channel
	PH_SETTLE_MS       = 10   // delay between raw reads
	PH_MIN_VALID       = 3    // surviving readings required per channel
	PH_RAIL_THRESHOLD  = 100  // raw values at or below this are disconnects
	PH_SLOPE           = 0.18 // probe transfer slope, V per pH unit

	// ADC configuration
	ADC_MAX = 1023 // 10-bit full scale
	VREF    = 5.0  // reference voltage

	// Relay configuration
	RELAY_DEBOUNCE_MS = 100

	// Calibration configuration
	CAL_SAMPLES     = 10
	CAL_DELAY_MS    = 100
	CAL_BASE_OFFSET = 0

	// Serial configuration. One snapshot frame is 6 + 12 + 4*5 + 5 = 43
	// bytes per second; 115200 baud leaves ample headroom for command
	// traffic in the other direction.
	UART_BAUD_RATE = 115200
)

var (
	// Environmental sensor data pin
	PIN_DHT = machine.D2

	// Light sensor
	PIN_LDR = hal.Pin(machine.ADC0)

	// pH probes, one channel per probe
	PH_PINS = []hal.Pin{
		hal.Pin(machine.ADC1),
		hal.Pin(machine.ADC2),
		hal.Pin(machine.ADC3),
		hal.Pin(machine.ADC4),
		hal.Pin(machine.ADC5),
	}

	// Relay drive lines (active low)
	RELAY_PINS = []hal.Pin{
		hal.Pin(machine.D3),
		hal.Pin(machine.D4),
		hal.Pin(machine.D5),
		hal.Pin(machine.D6),
		hal.Pin(machine.D7),
	}
)

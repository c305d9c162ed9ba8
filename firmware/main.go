//go:build tinygo

//go:generate tinygo flash -target=arduino

package main

import (
	"machine"
	"time"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/calibration"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/controller"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/relay"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

var uart = machine.UART0

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	hw := newHardware()
	env := newEnvSensor(PIN_DHT)

	// TODO: back the slot store with the AVR EEPROM once the driver lands
	// in tinygo.org/x/drivers; until then calibration survives resets only
	// through recalibration from the host.
	slots := calibration.NewMemStore(len(PH_PINS))
	store := calibration.NewStore(hw, slots, calibration.Config{
		Channels:          len(PH_PINS),
		BaseOffset:        CAL_BASE_OFFSET,
		Samples:           CAL_SAMPLES,
		SampleDelayMillis: CAL_DELAY_MS,
	})

	relays := relay.NewController(hw, relay.Config{
		Pins:           RELAY_PINS,
		DebounceMillis: RELAY_DEBOUNCE_MS,
	})

	sampler := sensor.NewSampler(hw, env, relays, store, sensor.Config{
		PHPins:         PH_PINS,
		LightPin:       PIN_LDR,
		ADCMax:         ADC_MAX,
		VRef:           VREF,
		SampleInterval: SAMPLE_INTERVAL_MS,
		PH: sensor.PHConfig{
			Samples:       PH_SAMPLES,
			SettleMillis:  PH_SETTLE_MS,
			MinValid:      PH_MIN_VALID,
			RailThreshold: PH_RAIL_THRESHOLD,
			VoltageMin:    0.5,
			VoltageMax:    4.5,
			Slope:         PH_SLOPE,
		},
	})

	ctrl := controller.New(hw, uart, sampler, relays, store, controller.Config{
		SampleIntervalMillis: SAMPLE_INTERVAL_MS,
	})
	ctrl.Begin()

	for {
		ctrl.Update()

		// Small delay to prevent a tight loop while keeping command
		// latency well under the debounce window.
		time.Sleep(time.Millisecond)
	}
}

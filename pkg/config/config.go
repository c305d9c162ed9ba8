package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/calibration"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/controller"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/hal"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/relay"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

// Config is the host-side application configuration. The firmware never
// links this package; it builds the per-package parameter structs from its
// pin table instead.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Pins        PinConfig         `yaml:"pins"`
	Sampling    SamplingConfig    `yaml:"sampling"`
	Relays      RelayConfig       `yaml:"relays"`
	Calibration CalibrationConfig `yaml:"calibration"`
}

// SerialConfig contains serial link settings.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// MQTTConfig contains broker and topic settings for the bridge.
type MQTTConfig struct {
	BrokerURL       string        `yaml:"broker_url"`
	ClientID        string        `yaml:"client_id"` // empty = derive from machine id
	RealtimeTopic   string        `yaml:"realtime_topic"`
	CommandTopic    string        `yaml:"command_topic"`
	PublishInterval time.Duration `yaml:"publish_interval"`
}

// TelemetryConfig contains local snapshot persistence settings.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// PinConfig is the pin table. Pin numbers are the target's, not validated
// here; counts drive the wire schema on both ends.
type PinConfig struct {
	DHT   uint8   `yaml:"dht"`
	LDR   uint8   `yaml:"ldr"`
	PH    []uint8 `yaml:"ph"`
	Relay []uint8 `yaml:"relay"`
}

// SamplingConfig contains acquisition parameters.
type SamplingConfig struct {
	IntervalMillis uint32           `yaml:"interval_ms"`
	ADCMax         uint16           `yaml:"adc_max"`
	VRef           float32          `yaml:"vref"`
	PH             PHSamplingConfig `yaml:"ph"`
}

// PHSamplingConfig tunes the pH rejection pipeline.
type PHSamplingConfig struct {
	Samples       int     `yaml:"samples"`
	SettleMillis  uint32  `yaml:"settle_ms"`
	MinValid      int     `yaml:"min_valid"`
	RailThreshold uint16  `yaml:"rail_threshold"`
	VoltageMin    float32 `yaml:"voltage_min"`
	VoltageMax    float32 `yaml:"voltage_max"`
	Slope         float32 `yaml:"slope"`
}

// RelayConfig contains relay protection settings.
type RelayConfig struct {
	DebounceMillis uint32 `yaml:"debounce_ms"`
}

// CalibrationConfig contains calibration sampling and storage layout.
type CalibrationConfig struct {
	Samples           int    `yaml:"samples"`
	SampleDelayMillis uint32 `yaml:"sample_delay_ms"`
	BaseOffset        int    `yaml:"base_offset"`
}

// Default returns the configuration matching the reference hardware: five
// pH probes, five relays, a 10-bit 5 V ADC.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: 115200,
		},
		MQTT: MQTTConfig{
			BrokerURL:       "tcp://localhost:1883",
			RealtimeTopic:   "hydroponics/realtime",
			CommandTopic:    "hydroponics/command",
			PublishInterval: 5 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			DBPath:  "hydroponics.db",
		},
		Pins: PinConfig{
			DHT:   2,
			LDR:   14,
			PH:    []uint8{15, 16, 17, 18, 19},
			Relay: []uint8{3, 4, 5, 6, 7},
		},
		Sampling: SamplingConfig{
			IntervalMillis: 1000,
			ADCMax:         1023,
			VRef:           5.0,
			PH: PHSamplingConfig{
				Samples:       10,
				SettleMillis:  10,
				MinValid:      3,
				RailThreshold: 100,
				VoltageMin:    0.5,
				VoltageMax:    4.5,
				Slope:         0.18,
			},
		},
		Relays: RelayConfig{
			DebounceMillis: 100,
		},
		Calibration: CalibrationConfig{
			Samples:           10,
			SampleDelayMillis: 100,
			BaseOffset:        0,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults;
// missing fields are filled in from defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills in required fields left empty by a partial file.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.MQTT.BrokerURL == "" {
		c.MQTT.BrokerURL = def.MQTT.BrokerURL
	}
	if c.MQTT.RealtimeTopic == "" {
		c.MQTT.RealtimeTopic = def.MQTT.RealtimeTopic
	}
	if c.MQTT.CommandTopic == "" {
		c.MQTT.CommandTopic = def.MQTT.CommandTopic
	}
	if c.MQTT.PublishInterval == 0 {
		c.MQTT.PublishInterval = def.MQTT.PublishInterval
	}

	if c.Telemetry.DBPath == "" {
		c.Telemetry.DBPath = def.Telemetry.DBPath
	}

	if len(c.Pins.PH) == 0 {
		c.Pins.PH = def.Pins.PH
	}
	if len(c.Pins.Relay) == 0 {
		c.Pins.Relay = def.Pins.Relay
	}
	if c.Pins.LDR == 0 {
		c.Pins.LDR = def.Pins.LDR
	}
	if c.Pins.DHT == 0 {
		c.Pins.DHT = def.Pins.DHT
	}

	if c.Sampling.IntervalMillis == 0 {
		c.Sampling.IntervalMillis = def.Sampling.IntervalMillis
	}
	if c.Sampling.ADCMax == 0 {
		c.Sampling.ADCMax = def.Sampling.ADCMax
	}
	if c.Sampling.VRef == 0 {
		c.Sampling.VRef = def.Sampling.VRef
	}
	if c.Sampling.PH.Samples == 0 {
		c.Sampling.PH.Samples = def.Sampling.PH.Samples
	}
	if c.Sampling.PH.SettleMillis == 0 {
		c.Sampling.PH.SettleMillis = def.Sampling.PH.SettleMillis
	}
	if c.Sampling.PH.MinValid == 0 {
		c.Sampling.PH.MinValid = def.Sampling.PH.MinValid
	}
	if c.Sampling.PH.RailThreshold == 0 {
		c.Sampling.PH.RailThreshold = def.Sampling.PH.RailThreshold
	}
	if c.Sampling.PH.VoltageMin == 0 {
		c.Sampling.PH.VoltageMin = def.Sampling.PH.VoltageMin
	}
	if c.Sampling.PH.VoltageMax == 0 {
		c.Sampling.PH.VoltageMax = def.Sampling.PH.VoltageMax
	}
	if c.Sampling.PH.Slope == 0 {
		c.Sampling.PH.Slope = def.Sampling.PH.Slope
	}

	if c.Relays.DebounceMillis == 0 {
		c.Relays.DebounceMillis = def.Relays.DebounceMillis
	}

	if c.Calibration.Samples == 0 {
		c.Calibration.Samples = def.Calibration.Samples
	}
	if c.Calibration.SampleDelayMillis == 0 {
		c.Calibration.SampleDelayMillis = def.Calibration.SampleDelayMillis
	}
}

// SensorConfig maps onto the sampler's parameter struct.
func (c *Config) SensorConfig() sensor.Config {
	return sensor.Config{
		PHPins:         toPins(c.Pins.PH),
		LightPin:       hal.Pin(c.Pins.LDR),
		ADCMax:         c.Sampling.ADCMax,
		VRef:           c.Sampling.VRef,
		SampleInterval: c.Sampling.IntervalMillis,
		PH: sensor.PHConfig{
			Samples:       c.Sampling.PH.Samples,
			SettleMillis:  c.Sampling.PH.SettleMillis,
			MinValid:      c.Sampling.PH.MinValid,
			RailThreshold: c.Sampling.PH.RailThreshold,
			VoltageMin:    c.Sampling.PH.VoltageMin,
			VoltageMax:    c.Sampling.PH.VoltageMax,
			Slope:         c.Sampling.PH.Slope,
		},
	}
}

// RelayControllerConfig maps onto the relay controller's parameter struct.
func (c *Config) RelayControllerConfig() relay.Config {
	return relay.Config{
		Pins:           toPins(c.Pins.Relay),
		DebounceMillis: c.Relays.DebounceMillis,
	}
}

// CalibrationStoreConfig maps onto the calibration store's parameter struct.
func (c *Config) CalibrationStoreConfig() calibration.Config {
	return calibration.Config{
		Channels:          len(c.Pins.PH),
		BaseOffset:        c.Calibration.BaseOffset,
		Samples:           c.Calibration.Samples,
		SampleDelayMillis: c.Calibration.SampleDelayMillis,
	}
}

// ControllerConfig maps onto the control loop's parameter struct.
func (c *Config) ControllerConfig() controller.Config {
	return controller.Config{
		SampleIntervalMillis: c.Sampling.IntervalMillis,
	}
}

func toPins(nums []uint8) []hal.Pin {
	pins := make([]hal.Pin, len(nums))
	for i, n := range nums {
		pins[i] = hal.Pin(n)
	}
	return pins
}

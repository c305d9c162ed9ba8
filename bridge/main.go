// The bridge daemon relays between the controller's serial link and the
// dashboard's MQTT broker: outbound snapshots become JSON on the realtime
// topic (and rows in the local telemetry database), inbound command messages
// become wire frames.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/config"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/link"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/pubsub"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/telemetry"
)

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		portFlag   = flag.String("p", "", "Serial port override (e.g., /dev/ttyUSB0)")
		mockFlag   = flag.Bool("mock", false, "Use a simulated controller instead of a serial port")
		debugFlag  = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debugFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	var device link.Device
	if *mockFlag {
		log.Info().Msg("using simulated controller")
		device = link.NewMock(link.DefaultMockConfig())
	} else {
		device = link.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, len(cfg.Pins.PH), len(cfg.Pins.Relay))
	}
	if err := device.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to controller")
	}
	defer device.Close()

	mq := pubsub.New(
		cfg.MQTT.BrokerURL,
		pubsub.ClientID(cfg.MQTT.ClientID),
		cfg.MQTT.RealtimeTopic,
		cfg.MQTT.CommandTopic,
	)
	if err := mq.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to broker")
	}
	defer mq.Close()

	var repo telemetry.Repository
	if cfg.Telemetry.Enabled {
		repo, err = telemetry.NewRepository(cfg.Telemetry.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open telemetry database")
		}
		defer repo.Close()
	}

	err = mq.SubscribeCommands(func(cmd pubsub.CommandMessage) {
		switch cmd.Action {
		case "toggle":
			if err := device.Toggle(cmd.Index); err != nil {
				log.Error().Err(err).Int("relay", cmd.Index).Msg("toggle failed")
			}
		case "calibrate":
			if err := device.Calibrate(cmd.Index, cmd.TargetPH); err != nil {
				log.Error().Err(err).Int("channel", cmd.Index).Msg("calibrate failed")
			}
		default:
			log.Warn().Str("action", cmd.Action).Msg("ignoring unknown command action")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe for commands")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ctx := context.Background()
	var lastPublish time.Time

	log.Info().Str("port", cfg.Serial.Port).Str("broker", cfg.MQTT.BrokerURL).Msg("bridge running")

	for {
		select {
		case snap, ok := <-device.Snapshots():
			if !ok {
				log.Info().Msg("device closed, shutting down")
				return
			}
			if repo != nil {
				if err := repo.Store(ctx, snap); err != nil {
					log.Error().Err(err).Msg("failed to store snapshot")
				}
			}
			if time.Since(lastPublish) >= cfg.MQTT.PublishInterval {
				if err := mq.PublishSnapshot(snap); err != nil {
					log.Error().Err(err).Msg("failed to publish snapshot")
				} else {
					lastPublish = time.Now()
				}
			}
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			return
		}
	}
}

// hydrocli is an interactive shell for poking a controller: watch the
// snapshot stream, toggle relays, and run pH calibrations against a real
// serial port or the built-in simulated device.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/config"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/link"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

type session struct {
	cfg    *config.Config
	device link.Device
}

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	s := &session{cfg: cfg}

	shell := ishell.New()
	shell.Println("hydroponics controller shell (type 'help' for commands)")
	shell.SetPrompt("[none] > ")

	shell.AddCmd(&ishell.Cmd{
		Name: "ports",
		Help: "list available serial ports",
		Func: func(c *ishell.Context) {
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			for _, p := range ports {
				c.Println(p)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "connect",
		Help: "connect [port] - open the serial link (default from config)",
		Func: func(c *ishell.Context) {
			if s.device != nil {
				c.Println("already connected; disconnect first")
				return
			}
			port := s.cfg.Serial.Port
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			dev := link.NewSerial(port, s.cfg.Serial.BaudRate, len(s.cfg.Pins.PH), len(s.cfg.Pins.Relay))
			if err := dev.Connect(); err != nil {
				c.Err(err)
				return
			}
			s.device = dev
			shell.SetPrompt("[" + port + "] > ")
			c.Println("connected")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "mock",
		Help: "connect to a simulated controller",
		Func: func(c *ishell.Context) {
			if s.device != nil {
				c.Println("already connected; disconnect first")
				return
			}
			mockCfg := link.DefaultMockConfig()
			mockCfg.SampleInterval = time.Second
			dev := link.NewMock(mockCfg)
			if err := dev.Connect(); err != nil {
				c.Err(err)
				return
			}
			s.device = dev
			shell.SetPrompt("[mock] > ")
			c.Println("connected to simulated controller")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "disconnect",
		Help: "close the current connection",
		Func: func(c *ishell.Context) {
			if s.device == nil {
				c.Println("not connected")
				return
			}
			if err := s.device.Close(); err != nil {
				c.Err(err)
			}
			s.device = nil
			shell.SetPrompt("[none] > ")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "show the connection and configured channel counts",
		Func: func(c *ishell.Context) {
			if s.device == nil {
				c.Println("not connected")
			} else if s.device.IsConnected() {
				c.Println("connected")
			} else {
				c.Println("disconnected")
			}
			c.Printf("config: %d pH channels, %d relays, %d baud\n",
				len(s.cfg.Pins.PH), len(s.cfg.Pins.Relay), s.cfg.Serial.BaudRate)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "watch",
		Help: "watch [n] - print the next n snapshots (default 5)",
		Func: func(c *ishell.Context) {
			if s.device == nil {
				c.Println("not connected")
				return
			}
			n := 5
			if len(c.Args) > 0 {
				v, err := strconv.Atoi(c.Args[0])
				if err != nil || v <= 0 {
					c.Println("usage: watch [n]")
					return
				}
				n = v
			}
			for i := 0; i < n; i++ {
				select {
				case snap, ok := <-s.device.Snapshots():
					if !ok {
						c.Println("stream closed")
						return
					}
					c.Println(formatSnapshot(snap))
				case <-time.After(5 * time.Second):
					c.Println("timed out waiting for snapshot")
					return
				}
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "toggle",
		Help: "toggle <relay> - flip one relay",
		Func: func(c *ishell.Context) {
			if s.device == nil {
				c.Println("not connected")
				return
			}
			if len(c.Args) != 1 {
				c.Println("usage: toggle <relay>")
				return
			}
			idx, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Println("usage: toggle <relay>")
				return
			}
			if err := s.device.Toggle(idx); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "calibrate",
		Help: "calibrate <channel> <ph> - calibrate a pH channel against a reference solution",
		Func: func(c *ishell.Context) {
			if s.device == nil {
				c.Println("not connected")
				return
			}
			if len(c.Args) != 2 {
				c.Println("usage: calibrate <channel> <ph>")
				return
			}
			idx, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Println("usage: calibrate <channel> <ph>")
				return
			}
			ph, err := strconv.ParseFloat(c.Args[1], 32)
			if err != nil || ph < 0 || ph > 14 {
				c.Println("ph must be between 0 and 14")
				return
			}
			if err := s.device.Calibrate(idx, float32(ph)); err != nil {
				c.Err(err)
				return
			}
			c.Println("calibration command sent; the controller samples for a few seconds before committing")
		},
	})

	shell.Run()

	if s.device != nil {
		s.device.Close()
	}
}

func formatSnapshot(snap sensor.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.1fC %.0f%%RH light=%.0f", snap.Temperature, snap.Humidity, snap.Light)
	b.WriteString(" pH=[")
	for i, ph := range snap.PH {
		if i > 0 {
			b.WriteByte(' ')
		}
		if ph == sensor.InvalidReading {
			b.WriteString("--")
		} else {
			fmt.Fprintf(&b, "%.2f", ph)
		}
	}
	b.WriteString("] relays=[")
	for i, on := range snap.Relays {
		if i > 0 {
			b.WriteByte(' ')
		}
		if on {
			b.WriteString("on")
		} else {
			b.WriteString("off")
		}
	}
	b.WriteString("]")
	return b.String()
}

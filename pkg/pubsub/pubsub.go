// Package pubsub publishes sensor snapshots to the dashboard's MQTT broker
// and receives relay/calibration commands from it. The browser dashboard
// itself is an external collaborator; this is its only contact surface.
package pubsub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

const connectTimeout = 10 * time.Second

// SnapshotMessage is the JSON document published on the realtime topic.
type SnapshotMessage struct {
	Temperature float32   `json:"temperature"`
	Humidity    float32   `json:"humidity"`
	LightLevel  float32   `json:"light_level"`
	PHLevels    []float32 `json:"ph_levels"`
	RelayStates []bool    `json:"relay_states"`
	Timestamp   int64     `json:"timestamp"`
}

// CommandMessage is the JSON document expected on the command topic.
type CommandMessage struct {
	Action   string  `json:"action"` // "toggle" or "calibrate"
	Index    int     `json:"index"`
	TargetPH float32 `json:"target_ph,omitempty"`
}

// CommandHandler receives decoded command messages.
type CommandHandler func(cmd CommandMessage)

// Client wraps the MQTT connection for the bridge.
type Client struct {
	client        paho.Client
	realtimeTopic string
	commandTopic  string
}

// ClientID returns the configured client id, or one derived from the
// machine id so two bridges on different hosts never collide.
func ClientID(configured string) string {
	if configured != "" {
		return configured
	}
	id, err := machineid.ID()
	if err != nil {
		log.Warn().Err(err).Msg("machine id unavailable, using static client id")
		return "hydroponics-bridge"
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return "hydroponics-" + id
}

// New creates a client for the given broker.
func New(brokerURL, clientID, realtimeTopic, commandTopic string) *Client {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetCleanSession(true)
	opts.OnConnect = func(paho.Client) {
		log.Info().Str("broker", brokerURL).Msg("mqtt connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	}

	return &Client{
		client:        paho.NewClient(opts),
		realtimeTopic: realtimeTopic,
		commandTopic:  commandTopic,
	}
}

// Connect establishes the broker connection.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect failed: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

// PublishSnapshot publishes one snapshot on the realtime topic.
func (c *Client) PublishSnapshot(snap sensor.Snapshot) error {
	msg := SnapshotMessage{
		Temperature: snap.Temperature,
		Humidity:    snap.Humidity,
		LightLevel:  snap.Light,
		PHLevels:    snap.PH,
		RelayStates: snap.Relays,
		Timestamp:   time.Now().Unix(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	token := c.client.Publish(c.realtimeTopic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// SubscribeCommands registers the handler for the command topic. Malformed
// documents are logged and dropped, mirroring the controller's own tolerance
// for protocol garbage.
func (c *Client) SubscribeCommands(handler CommandHandler) error {
	token := c.client.Subscribe(c.commandTopic, 1, func(_ paho.Client, m paho.Message) {
		var cmd CommandMessage
		if err := json.Unmarshal(m.Payload(), &cmd); err != nil {
			log.Warn().Err(err).Str("topic", m.Topic()).Msg("dropped malformed command message")
			return
		}
		handler(cmd)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.commandTopic, err)
	}
	return nil
}

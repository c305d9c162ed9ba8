package pubsub

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientID_ConfiguredWins(t *testing.T) {
	assert.Equal(t, "bench-rig", ClientID("bench-rig"))
}

func TestClientID_DerivedIsStable(t *testing.T) {
	first := ClientID("")
	second := ClientID("")

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "hydroponics-"))
}

func TestCommandMessage_Decoding(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    CommandMessage
	}{
		{
			name:    "toggle",
			payload: `{"action":"toggle","index":2}`,
			want:    CommandMessage{Action: "toggle", Index: 2},
		},
		{
			name:    "calibrate",
			payload: `{"action":"calibrate","index":0,"target_ph":7}`,
			want:    CommandMessage{Action: "calibrate", Index: 0, TargetPH: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got CommandMessage
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotMessage_Encoding(t *testing.T) {
	msg := SnapshotMessage{
		Temperature: 24.5,
		Humidity:    60,
		LightLevel:  75,
		PHLevels:    []float32{6.8, -1},
		RelayStates: []bool{true, false},
		Timestamp:   1724572800,
	}

	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"temperature": 24.5,
		"humidity": 60,
		"light_level": 75,
		"ph_levels": [6.8, -1],
		"relay_states": [true, false],
		"timestamp": 1724572800
	}`, string(payload))
}

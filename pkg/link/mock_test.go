package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

func fastMockConfig() MockConfig {
	return MockConfig{
		PHChannels:     2,
		Relays:         2,
		TargetPH:       6.8,
		Noise:          0,
		SampleInterval: 20 * time.Millisecond,
	}
}

func waitSnapshot(t *testing.T, m *Mock) sensor.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-m.Snapshots():
		require.True(t, ok, "snapshot channel closed unexpectedly")
		return snap
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
		return sensor.Snapshot{}
	}
}

func TestMock_ProducesSnapshots(t *testing.T) {
	m := NewMock(fastMockConfig())
	require.NoError(t, m.Connect())
	defer m.Close()

	snap := waitSnapshot(t, m)

	require.Len(t, snap.PH, 2)
	require.Len(t, snap.Relays, 2)
	for _, ph := range snap.PH {
		assert.InDelta(t, 6.8, ph, 0.1, "noiseless probes must read the solution pH")
	}
	assert.Greater(t, snap.Temperature, float32(20))
	assert.Less(t, snap.Temperature, float32(30))
	assert.GreaterOrEqual(t, snap.Light, float32(0))
	assert.LessOrEqual(t, snap.Light, float32(100))
	assert.Equal(t, []bool{false, false}, snap.Relays)
}

func TestMock_ToggleRoundTrip(t *testing.T) {
	m := NewMock(fastMockConfig())
	require.NoError(t, m.Connect())
	defer m.Close()

	waitSnapshot(t, m)
	require.NoError(t, m.Toggle(0))

	// The toggle travels the wire and shows up in a later snapshot.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-m.Snapshots():
			if snap.Relays[0] {
				assert.False(t, snap.Relays[1], "only the addressed relay may change")
				return
			}
		case <-deadline:
			t.Fatal("relay state never reflected the toggle")
		}
	}
}

func TestMock_ConnectionLifecycle(t *testing.T) {
	m := NewMock(fastMockConfig())

	assert.False(t, m.IsConnected())
	assert.Error(t, m.Toggle(0), "commands require a connection")

	require.NoError(t, m.Connect())
	assert.True(t, m.IsConnected())
	assert.Error(t, m.Connect(), "double connect must be rejected")

	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())
	require.NoError(t, m.Close(), "close is idempotent")

	// The channel drains and closes.
	for range m.Snapshots() {
	}
}

func TestMock_ZeroConfigUsesDefaults(t *testing.T) {
	m := NewMock(MockConfig{})
	assert.Equal(t, DefaultMockConfig(), m.cfg)
}

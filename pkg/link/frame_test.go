package link

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/protocol"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

func testSnapshot() sensor.Snapshot {
	return sensor.Snapshot{
		Temperature: 23.0,
		Humidity:    58.0,
		Light:       40.0,
		PH:          []float32{6.8, 7.1},
		Relays:      []bool{true, false, false},
	}
}

func reader(chunks ...[]byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(bytes.Join(chunks, nil)))
}

func TestReadSnapshot_CleanStream(t *testing.T) {
	want := testSnapshot()
	frame, err := protocol.EncodeSnapshot(want)
	require.NoError(t, err)

	got, err := readSnapshot(reader(frame), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadSnapshot_SkipsLeadingGarbage(t *testing.T) {
	want := testSnapshot()
	frame, err := protocol.EncodeSnapshot(want)
	require.NoError(t, err)

	// Noise, a lone 0xFF, then the real frame.
	got, err := readSnapshot(reader([]byte{0x00, 0x42, protocol.StartMarker0, 0x13}, frame), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadSnapshot_BadEndMarker(t *testing.T) {
	frame, err := protocol.EncodeSnapshot(testSnapshot())
	require.NoError(t, err)
	frame[len(frame)-1] = 0x00

	_, err = readSnapshot(reader(frame), 2, 3)
	assert.ErrorIs(t, err, errBadFrame)
}

func TestReadSnapshot_OversizedLength(t *testing.T) {
	stream := []byte{protocol.StartMarker0, protocol.StartMarker1, 0xFF, 0xFF}

	_, err := readSnapshot(reader(stream), 2, 3)
	assert.ErrorIs(t, err, errBadFrame)
}

func TestReadSnapshot_WrongChannelCount(t *testing.T) {
	frame, err := protocol.EncodeSnapshot(testSnapshot())
	require.NoError(t, err)

	// The host expects a different schema than the frame carries.
	_, err = readSnapshot(reader(frame), 5, 5)
	assert.ErrorIs(t, err, errBadFrame)
}

func TestReadSnapshot_TruncatedStream(t *testing.T) {
	frame, err := protocol.EncodeSnapshot(testSnapshot())
	require.NoError(t, err)

	_, err = readSnapshot(reader(frame[:len(frame)-3]), 2, 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errBadFrame, "a dead transport is not recoverable garbage")
	assert.ErrorIs(t, err, io.EOF)
}

func TestByteQueue(t *testing.T) {
	q := &byteQueue{}

	_, err := q.ReadByte()
	assert.ErrorIs(t, err, io.EOF)

	n, err := q.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, q.Buffered())

	b, err := q.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)

	assert.Equal(t, []byte{2, 3}, q.Drain())
	assert.Equal(t, 0, q.Buffered())
}

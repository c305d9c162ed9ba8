package protocol

import (
	"encoding/binary"
	"math"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

// SnapshotSize returns the payload size for the given channel counts.
func SnapshotSize(phCount, relayCount int) int {
	return snapshotFixedSize + 4*phCount + relayCount
}

// EncodeSnapshot serializes a snapshot into a complete outbound frame.
// Returns ErrPayloadTooLarge when the channel counts overflow the fixed
// capacity; the snapshot is then dropped, there is no partial frame.
func EncodeSnapshot(snap sensor.Snapshot) ([]byte, error) {
	size := SnapshotSize(len(snap.PH), len(snap.Relays))
	if size > MaxPayload {
		return nil, ErrPayloadTooLarge
	}

	frame := make([]byte, 0, size+6)
	frame = append(frame, StartMarker0, StartMarker1)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(size))
	frame = binary.LittleEndian.AppendUint32(frame, math.Float32bits(snap.Temperature))
	frame = binary.LittleEndian.AppendUint32(frame, math.Float32bits(snap.Humidity))
	frame = binary.LittleEndian.AppendUint32(frame, math.Float32bits(snap.Light))
	for _, ph := range snap.PH {
		frame = binary.LittleEndian.AppendUint32(frame, math.Float32bits(ph))
	}
	for _, on := range snap.Relays {
		if on {
			frame = append(frame, 1)
		} else {
			frame = append(frame, 0)
		}
	}
	frame = append(frame, EndMarker0, EndMarker1)
	return frame, nil
}

// DecodeSnapshot parses an outbound payload (markers and length already
// stripped) for the given channel counts.
func DecodeSnapshot(payload []byte, phCount, relayCount int) (sensor.Snapshot, error) {
	if len(payload) != SnapshotSize(phCount, relayCount) {
		return sensor.Snapshot{}, ErrPayloadSize
	}
	snap := sensor.Snapshot{
		Temperature: math.Float32frombits(binary.LittleEndian.Uint32(payload[0:4])),
		Humidity:    math.Float32frombits(binary.LittleEndian.Uint32(payload[4:8])),
		Light:       math.Float32frombits(binary.LittleEndian.Uint32(payload[8:12])),
		PH:          make([]float32, phCount),
		Relays:      make([]bool, relayCount),
	}
	off := snapshotFixedSize
	for i := 0; i < phCount; i++ {
		snap.PH[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
		off += 4
	}
	for i := 0; i < relayCount; i++ {
		snap.Relays[i] = payload[off] != 0
		off++
	}
	return snap, nil
}

// EncodeCommand serializes a command as an inbound frame (length prefix plus
// fixed payload, no markers).
func EncodeCommand(cmd Command) []byte {
	frame := make([]byte, 0, 2+commandSize)
	frame = binary.LittleEndian.AppendUint16(frame, commandSize)
	frame = append(frame, byte(cmd.Type))
	frame = binary.LittleEndian.AppendUint32(frame, cmd.RelayIndex)
	frame = binary.LittleEndian.AppendUint32(frame, cmd.PHIndex)
	frame = binary.LittleEndian.AppendUint32(frame, math.Float32bits(cmd.PHValue))
	return frame
}

// DecodeCommand parses an inbound payload. Payloads that do not match the
// fixed schema size are rejected; the caller drops them silently.
func DecodeCommand(payload []byte) (Command, error) {
	if len(payload) != commandSize {
		return Command{}, ErrPayloadSize
	}
	return Command{
		Type:       CommandType(payload[0]),
		RelayIndex: binary.LittleEndian.Uint32(payload[1:5]),
		PHIndex:    binary.LittleEndian.Uint32(payload[5:9]),
		PHValue:    math.Float32frombits(binary.LittleEndian.Uint32(payload[9:13])),
	}, nil
}

package link

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/protocol"
	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

// errBadFrame marks a frame dropped during scanning; the reader resumes at
// the next start marker.
var errBadFrame = errors.New("link: dropped malformed frame")

// readSnapshot scans the stream for the next outbound frame and decodes it.
// It hunts for the two-byte start marker, reads the length word, rejects
// oversized lengths, and verifies the end marker before trusting the payload.
// Returns errBadFrame for recoverable protocol garbage; any other error is a
// transport failure.
func readSnapshot(br *bufio.Reader, phCount, relayCount int) (sensor.Snapshot, error) {
	// Resynchronize on the start marker.
	for {
		b, err := br.ReadByte()
		if err != nil {
			return sensor.Snapshot{}, fmt.Errorf("read start marker: %w", err)
		}
		if b != protocol.StartMarker0 {
			continue
		}
		b, err = br.ReadByte()
		if err != nil {
			return sensor.Snapshot{}, fmt.Errorf("read start marker: %w", err)
		}
		if b == protocol.StartMarker1 {
			break
		}
	}

	var lenBytes [2]byte
	for i := range lenBytes {
		b, err := br.ReadByte()
		if err != nil {
			return sensor.Snapshot{}, fmt.Errorf("read length: %w", err)
		}
		lenBytes[i] = b
	}
	length := int(lenBytes[0]) | int(lenBytes[1])<<8
	if length > protocol.MaxPayload {
		return sensor.Snapshot{}, errBadFrame
	}

	payload := make([]byte, length)
	for i := range payload {
		b, err := br.ReadByte()
		if err != nil {
			return sensor.Snapshot{}, fmt.Errorf("read payload: %w", err)
		}
		payload[i] = b
	}

	var endBytes [2]byte
	for i := range endBytes {
		b, err := br.ReadByte()
		if err != nil {
			return sensor.Snapshot{}, fmt.Errorf("read end marker: %w", err)
		}
		endBytes[i] = b
	}
	if endBytes[0] != protocol.EndMarker0 || endBytes[1] != protocol.EndMarker1 {
		return sensor.Snapshot{}, errBadFrame
	}

	snap, err := protocol.DecodeSnapshot(payload, phCount, relayCount)
	if err != nil {
		return sensor.Snapshot{}, errBadFrame
	}
	return snap, nil
}

// Package protocol implements the serial wire format between the controller
// and the host.
//
// Outbound (device to host), one frame per snapshot:
//
//	0xFF 0xFE | len_lo len_hi | payload[len] | 0xFD 0xFC
//
// with the payload laid out little-endian as
//
//	temperature f32 | humidity f32 | light f32 | pH[n] f32 | relay[m] byte
//
// where n and m are fixed by configuration on both ends.
//
// Inbound (host to device) frames carry only a length prefix, no markers:
//
//	len_lo len_hi | payload[len]
//
// The asymmetry is part of the deployed protocol and is kept as-is.
package protocol

// Frame markers and limits.
const (
	StartMarker0 byte = 0xFF
	StartMarker1 byte = 0xFE
	EndMarker0   byte = 0xFD
	EndMarker1   byte = 0xFC

	// MaxPayload is the hard payload capacity in both directions. It bounds
	// every decode buffer and must never be exceeded by configuration.
	MaxPayload = 128

	// snapshotFixedSize is the payload size before the pH and relay arrays.
	snapshotFixedSize = 12

	// commandSize is the fixed inbound payload layout:
	// tag(1) | relay_index(4) | ph_index(4) | ph_value(4).
	commandSize = 13
)

// CommandType is the inbound payload discriminant.
type CommandType byte

const (
	// CmdToggleRelay flips one relay.
	CmdToggleRelay CommandType = 0
	// CmdCalibratePH recalibrates one pH channel against a reference solution.
	CmdCalibratePH CommandType = 1
)

// Command is a decoded host instruction. All fields are always present on the
// wire; which ones are meaningful depends on Type.
type Command struct {
	Type       CommandType
	RelayIndex uint32
	PHIndex    uint32
	PHValue    float32
}

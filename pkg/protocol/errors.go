package protocol

import "errors"

var (
	// ErrPayloadTooLarge means the configured channel counts produce a
	// payload over MaxPayload. This is a configuration error, not transient
	// noise, and is the one protocol condition callers should count.
	ErrPayloadTooLarge = errors.New("protocol: payload exceeds frame capacity")

	// ErrPayloadSize means a payload does not match the fixed schema size.
	ErrPayloadSize = errors.New("protocol: payload size does not match schema")
)

package protocol

// ByteSource is a non-blocking byte stream, shaped after a UART receive
// buffer: Buffered reports how many bytes can be read without blocking.
type ByteSource interface {
	Buffered() int
	ReadByte() (byte, error)
}

// Decoder scans an inbound byte stream for command frames. It holds no state
// between calls beyond its fixed scratch buffer: a frame that has not fully
// arrived by the time the read budget is exhausted is discarded, not buffered
// across ticks. That bounds memory and keeps a lossy link from replaying a
// stale prefix against a later length word.
type Decoder struct {
	src ByteSource
	buf [MaxPayload]byte
}

// NewDecoder creates a decoder over the given source.
func NewDecoder(src ByteSource) *Decoder {
	return &Decoder{src: src}
}

// Next drains the source until it yields one well-formed command or runs out
// of bytes. Oversized lengths, truncated frames, and malformed payloads are
// all dropped silently and scanning resumes at the next length word.
func (d *Decoder) Next() (Command, bool) {
	for d.src.Buffered() >= 2 {
		lo, err := d.src.ReadByte()
		if err != nil {
			break
		}
		hi, err := d.src.ReadByte()
		if err != nil {
			break
		}
		length := int(lo) | int(hi)<<8

		if length > MaxPayload {
			// Garbage length word; rescan from the next byte pair.
			continue
		}

		if avail := d.src.Buffered(); avail < length {
			// Partial frame: consume what arrived and drop it.
			for i := 0; i < avail; i++ {
				if _, err := d.src.ReadByte(); err != nil {
					break
				}
			}
			continue
		}

		ok := true
		for i := 0; i < length; i++ {
			b, err := d.src.ReadByte()
			if err != nil {
				ok = false
				break
			}
			d.buf[i] = b
		}
		if !ok {
			break
		}

		cmd, err := DecodeCommand(d.buf[:length])
		if err != nil {
			continue
		}
		return cmd, true
	}
	return Command{}, false
}

package sensor

// InvalidReading marks a pH channel whose probe is disconnected or too noisy
// to trust. It travels all the way to the wire so the consumer can tell a bad
// probe from a bad link.
const InvalidReading float32 = -1.0

// Snapshot is one acquisition of every sensor plus the relay states at that
// moment. Immutable once produced; one per sample tick.
type Snapshot struct {
	Temperature float32   // degrees C
	Humidity    float32   // %RH
	Light       float32   // normalized 0-100
	PH          []float32 // one per pH channel, InvalidReading when unusable
	Relays      []bool    // one per relay
}

// Clone returns a deep copy so a retained snapshot cannot alias the next
// tick's slices.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.PH = append([]float32(nil), s.PH...)
	out.Relays = append([]bool(nil), s.Relays...)
	return out
}

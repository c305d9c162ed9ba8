package calibration

// MemStore is a RAM-backed SlotStore. It serves targets without a usable
// EEPROM driver and every test that needs scripted slot contents. Reads
// outside the backing array return 0 (an invalid multiplier, replaced at
// load); writes outside it are dropped.
type MemStore struct {
	slots []float32
}

// NewMemStore allocates a store with the given number of slots.
func NewMemStore(size int) *MemStore {
	return &MemStore{slots: make([]float32, size)}
}

func (m *MemStore) ReadSlot(offset int) float32 {
	if offset < 0 || offset >= len(m.slots) {
		return 0
	}
	return m.slots[offset]
}

func (m *MemStore) WriteSlot(offset int, value float32) {
	if offset < 0 || offset >= len(m.slots) {
		return
	}
	m.slots[offset] = value
}

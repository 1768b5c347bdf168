package table

// memoryBackend is the default CsBackend: an in-memory map, grounded on the
// forwarder's std/object/storage MemoryStore. Nothing here persists across
// a restart.
type memoryBackend struct {
	m map[uint64][]byte
}

// NewMemoryBackend constructs an in-memory CsBackend.
func NewMemoryBackend() CsBackend {
	return &memoryBackend{m: make(map[uint64][]byte)}
}

func (b *memoryBackend) Get(key uint64) ([]byte, bool) {
	v, ok := b.m[key]
	return v, ok
}

func (b *memoryBackend) Put(key uint64, payload []byte) {
	b.m[key] = payload
}

func (b *memoryBackend) Delete(key uint64) {
	delete(b.m, key)
}

func (b *memoryBackend) Close() error {
	return nil
}

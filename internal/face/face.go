// Package face implements the link-layer interface of spec §6.2: faces
// are the node's only notion of "where a packet came from or goes to",
// addressed by an opaque FaceID rather than by transport address. The
// forwarding engine never sees a net.Conn; it sees face IDs.
package face

import (
	"sync"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
)

// Face is one endpoint a packet can be sent to or received from.
type Face interface {
	ID() defn.FaceID
	// Send is best-effort and non-blocking (§6.2): a slow or dead peer
	// must never stall the caller.
	Send(raw []byte)
	// Remote identifies the face's peer, for face_for's address table.
	Remote() string
	Local() bool
	Close()
	IsRunning() bool
	String() string

	NInBytes() uint64
	NOutBytes() uint64
}

// ReceiveFunc is how a face hands a decoded frame up to the node. It is
// called from the face's own receive goroutine.
type ReceiveFunc func(face defn.FaceID, raw []byte)

// baseFace holds the bookkeeping common to every transport, grounded on
// fw/face/transport.go's transportBase.
type baseFace struct {
	id      defn.FaceID
	remote  string
	local   bool
	running bool
	mu      sync.Mutex

	nInBytes  uint64
	nOutBytes uint64
}

func (b *baseFace) ID() defn.FaceID { return b.id }
func (b *baseFace) Remote() string  { return b.remote }
func (b *baseFace) Local() bool     { return b.local }

func (b *baseFace) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *baseFace) setRunning(v bool) {
	b.mu.Lock()
	b.running = v
	b.mu.Unlock()
}

func (b *baseFace) addIn(n int)  { b.mu.Lock(); b.nInBytes += uint64(n); b.mu.Unlock() }
func (b *baseFace) addOut(n int) { b.mu.Lock(); b.nOutBytes += uint64(n); b.mu.Unlock() }

func (b *baseFace) NInBytes() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nInBytes
}

func (b *baseFace) NOutBytes() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nOutBytes
}

// Table is the face table: it owns every live Face, hands out fresh
// FaceIDs, looks faces up by peer address (FaceFor), and evicts the
// oldest face on capacity overflow (§6.2). FaceFor does not create a face
// for an unknown address, and Add registers a new face even when one is
// already registered for the same address.
type Table struct {
	mu sync.Mutex

	capacity int
	nextID   defn.FaceID
	faces    map[defn.FaceID]Face
	byAddr   map[string]defn.FaceID
	order    []defn.FaceID // creation order, oldest first
}

// DefaultCapacity is the face table's default maximum occupancy (§6.2).
const DefaultCapacity = 10_000

// NewTable constructs a face table. capacity <= 0 means DefaultCapacity.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{
		capacity: capacity,
		nextID:   defn.LocalApp + 1,
		faces:    make(map[defn.FaceID]Face),
		byAddr:   make(map[string]defn.FaceID),
	}
}

func (t *Table) String() string { return "face-table" }

// Add registers a newly constructed face under a freshly allocated ID,
// evicting the oldest face if the table is at capacity.
func (t *Table) Add(makeFace func(id defn.FaceID) Face) Face {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.faces) >= t.capacity {
		t.evictOldestLocked()
	}

	id := t.nextID
	t.nextID++
	f := makeFace(id)
	t.faces[id] = f
	t.byAddr[f.Remote()] = id
	t.order = append(t.order, id)
	return f
}

func (t *Table) evictOldestLocked() {
	if len(t.order) == 0 {
		return
	}
	oldest := t.order[0]
	t.order = t.order[1:]
	if f, ok := t.faces[oldest]; ok {
		f.Close()
		delete(t.faces, oldest)
		delete(t.byAddr, f.Remote())
		log.Info(t, "Evicted oldest face on capacity overflow", "face", oldest)
	}
}

// FaceFor returns the face already registered for addr, if any.
func (t *Table) FaceFor(addr string) (defn.FaceID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.byAddr[addr]
	return id, ok
}

// Get returns the face with the given ID, if it is still registered.
func (t *Table) Get(id defn.FaceID) (Face, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.faces[id]
	return f, ok
}

// Remove unregisters and closes a face.
func (t *Table) Remove(id defn.FaceID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.faces[id]
	if !ok {
		return
	}
	f.Close()
	delete(t.faces, id)
	delete(t.byAddr, f.Remote())
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Faces returns every currently registered face (faces() iterator, §6.2).
func (t *Table) Faces() []Face {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Face, 0, len(t.faces))
	for _, f := range t.faces {
		out = append(out, f)
	}
	return out
}

// Len returns the number of registered faces.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.faces)
}

// Send delivers raw bytes to a registered face, silently dropping if the
// face is unknown or down -- consistent with send's "best-effort"
// contract (§6.2).
func (t *Table) Send(id defn.FaceID, raw []byte) {
	f, ok := t.Get(id)
	if !ok || !f.IsRunning() {
		return
	}
	f.Send(raw)
}

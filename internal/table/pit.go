package table

import (
	"time"

	"github.com/picn-go/picn/internal/defn"
)

// PitEntry records one outstanding Interest, per spec §3.2. Fields are
// exported so the engine (the sole packet-handling owner; see Pit's
// doc-comment on locking) can read and mutate them directly instead of
// going through a setter per field, the way basePitEntry's callers do in
// the forwarder this is modeled on.
type PitEntry struct {
	Name defn.Name

	InFaces []defn.FaceID // parallel to Local
	Local   []bool

	Interest    *defn.Interest
	Timestamp   time.Time
	Retransmits int

	// FibsTried holds snapshots of FIB entries already exhausted for this
	// name, taken at lookup time by value (name + upstream set) so later
	// FIB mutations can't invalidate this PIT entry's fallback state.
	FibsTried []FibIdentity

	NackedFaces map[defn.FaceID]bool

	OutstandingForwards int
	IsSession           bool

	// CurrentFib is the identity of the FIB entry most recently used to
	// forward this entry's Interest upstream, if any. Nack processing
	// moves it into FibsTried before searching for a fallback.
	CurrentFib *FibIdentity
}

// FibIdentity is a value snapshot of a FIB entry's identity: its name and
// the upstream set it held at lookup time. Two snapshots are equal iff
// their name and upstream set (as sets) are equal.
type FibIdentity struct {
	Name      defn.Name
	Upstreams []defn.FaceID
}

// Equal reports whether two FIB identity snapshots name the same entry.
func (a FibIdentity) Equal(b FibIdentity) bool {
	if !a.Name.Equal(b.Name) || len(a.Upstreams) != len(b.Upstreams) {
		return false
	}
	seen := make(map[defn.FaceID]bool, len(a.Upstreams))
	for _, f := range a.Upstreams {
		seen[f] = true
	}
	for _, f := range b.Upstreams {
		if !seen[f] {
			return false
		}
	}
	return true
}

// HasInFace reports whether face is already recorded, so repeated
// aggregation of the same downstream is a no-op (§4.1 "deduplicated").
func (e *PitEntry) HasInFace(face defn.FaceID) bool {
	for _, f := range e.InFaces {
		if f == face {
			return true
		}
	}
	return false
}

// AddInFace appends (face, local) unless face is already present.
func (e *PitEntry) AddInFace(face defn.FaceID, local bool) {
	if e.HasInFace(face) {
		return
	}
	e.InFaces = append(e.InFaces, face)
	e.Local = append(e.Local, local)
}

// RemoveInFaces drops every recorded downstream whose face is in faces,
// keeping InFaces/Local parallel. Used by Nack processing to strip local
// downstreams that have already been answered (§4.3 step 6).
func (e *PitEntry) RemoveInFaces(remove map[defn.FaceID]bool) {
	inFaces := e.InFaces[:0]
	local := e.Local[:0]
	for i, f := range e.InFaces {
		if remove[f] {
			continue
		}
		inFaces = append(inFaces, f)
		local = append(local, e.Local[i])
	}
	e.InFaces = inFaces
	e.Local = local
}

// HasTried reports whether a FIB identity has already been exhausted for
// this PIT entry's fallback search.
func (e *PitEntry) HasTried(id FibIdentity) bool {
	for _, t := range e.FibsTried {
		if t.Equal(id) {
			return true
		}
	}
	return false
}

// Pit is the Pending Interest Table: a set of PitEntry keyed by exact Name.
//
// Pit carries no lock of its own. A single PIT lookup is never useful in
// isolation -- every real operation is a multi-step sequence ("look up the
// entry, then consult the FIB, then mutate the entry") that must not be
// interleaved with the aging task touching the same entry. So the
// forwarding engine (internal/fwengine) wraps every packet-handling step
// and every aging tick in one coarser-grained lock covering Pit, Fib and
// the Content Store together, and Pit is only ever touched while that lock
// is held. This is the "mutex or single-owner actor" scheme spec §5 allows;
// tests that want a standalone Pit must serialize their own access.
type Pit struct {
	entries map[string]*PitEntry
}

func (p *Pit) String() string { return "pit" }

// NewPit constructs an empty Pending Interest Table.
func NewPit() *Pit {
	return &Pit{entries: make(map[string]*PitEntry)}
}

// Get returns the entry for name, if any.
func (p *Pit) Get(name defn.Name) (*PitEntry, bool) {
	e, ok := p.entries[name.Key()]
	return e, ok
}

// Insert adds a new entry, replacing without notice any entry already
// held for the same name. Callers must first confirm via Get that no
// entry exists for this name, which keeps the "no two PIT entries share a
// name" invariant visible at call sites.
func (p *Pit) Insert(e *PitEntry) {
	p.entries[e.Name.Key()] = e
}

// Remove deletes the entry for name, if present.
func (p *Pit) Remove(name defn.Name) {
	delete(p.entries, name.Key())
}

// NewEntry constructs a fresh, empty PitEntry for name ready to be
// inserted.
func NewEntry(name defn.Name) *PitEntry {
	return &PitEntry{
		Name:        name.Clone(),
		Timestamp:   time.Now(),
		NackedFaces: make(map[defn.FaceID]bool),
	}
}

// All returns every entry currently in the table. Used by the aging sweep,
// which already holds the engine's coarse lock for the whole tick.
func (p *Pit) All() []*PitEntry {
	out := make([]*PitEntry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e)
	}
	return out
}

// Len returns the number of pending entries.
func (p *Pit) Len() int {
	return len(p.entries)
}

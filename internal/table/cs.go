// Package table implements the three stores shared between the packet
// pipeline and the aging task: the Content Store, the Pending Interest
// Table, and the Forwarding Information Base. ContentStore's exported
// methods take the store's own lock. Pit and Fib carry no lock: the
// caller serializes access to them (see Pit's doc comment).
package table

import (
	"container/list"
	"sync"
	"time"

	"github.com/picn-go/picn/internal/defn"
)

// CsEntry is a read-only snapshot of one Content Store slot, returned by
// Find/Walk for callers that need more than just the payload bytes.
type CsEntry struct {
	Name       defn.Name
	Payload    []byte
	LastAccess time.Time
	Static     bool
}

type csSlot struct {
	name       defn.Name
	hash       uint64
	lastAccess time.Time
	static     bool
	elem       *list.Element
}

// ContentStore is a Name -> (payload, last_access_timestamp) cache with
// bounded capacity and LRU eviction on overflow, and a periodic TTL sweep
// for non-static entries run by the aging task. Entry bookkeeping (name,
// timestamp, static flag, LRU order) always lives in memory; only the
// payload bytes are delegated to the CsBackend, so a durable backend never
// needs to implement iteration or ordering.
type ContentStore struct {
	mu       sync.Mutex
	capacity int
	backend  CsBackend
	index    map[string]*csSlot // keyed by Name.Key() for exact-match correctness
	lru      *list.List         // front = most recently used

	nHits, nMisses, nInserts uint64
}

func (cs *ContentStore) String() string { return "content-store" }

// NewContentStore constructs a Content Store with the given capacity
// (entries, not bytes) and backend. A nil backend defaults to an in-memory
// map.
func NewContentStore(capacity int, backend CsBackend) *ContentStore {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &ContentStore{
		capacity: capacity,
		backend:  backend,
		index:    make(map[string]*csSlot),
		lru:      list.New(),
	}
}

// Find looks up an exact name. On a hit, it refreshes the entry's
// last-access timestamp (the CS "advances monotonically on read or write"
// invariant) and moves it to the front of the LRU list.
func (cs *ContentStore) Find(name defn.Name) ([]byte, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	slot, ok := cs.index[name.Key()]
	if !ok {
		cs.nMisses++
		return nil, false
	}
	payload, ok := cs.backend.Get(slot.hash)
	if !ok {
		// Backend and index disagree (e.g. hash collision evicted the
		// wrong payload); treat as a miss and drop the stale index entry.
		cs.removeSlot(slot)
		cs.nMisses++
		return nil, false
	}

	slot.lastAccess = time.Now()
	cs.lru.MoveToFront(slot.elem)
	cs.nHits++
	return payload, true
}

// Insert creates or overwrites the entry for name. Insertion of the same
// (name, payload) twice is idempotent except for the refreshed timestamp.
// When inserting pushes the store over capacity, the least-recently-used
// non-static entry is evicted; if every entry is static, capacity is
// exceeded rather than evicting static data.
func (cs *ContentStore) Insert(name defn.Name, payload []byte, static bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	key := name.Key()
	now := time.Now()

	if slot, ok := cs.index[key]; ok {
		slot.lastAccess = now
		slot.static = static
		cs.lru.MoveToFront(slot.elem)
		cs.backend.Put(slot.hash, payload)
		return
	}

	slot := &csSlot{name: name.Clone(), hash: name.Hash(), lastAccess: now, static: static}
	slot.elem = cs.lru.PushFront(slot)
	cs.index[key] = slot
	cs.backend.Put(slot.hash, payload)
	cs.nInserts++

	cs.evictOverCapacity()
}

func (cs *ContentStore) evictOverCapacity() {
	if cs.capacity <= 0 {
		return
	}
	for len(cs.index) > cs.capacity {
		evicted := false
		for e := cs.lru.Back(); e != nil; e = e.Prev() {
			slot := e.Value.(*csSlot)
			if slot.static {
				continue
			}
			cs.removeSlot(slot)
			evicted = true
			break
		}
		if !evicted {
			// everything left is static; capacity is advisory in that case
			break
		}
	}
}

// AgeOut evicts every non-static entry whose last access is older than ttl.
// Called by the periodic aging task (spec-CS aging, §4.4).
func (cs *ContentStore) AgeOut(ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	var next *list.Element
	for e := cs.lru.Back(); e != nil; e = next {
		next = e.Prev()
		slot := e.Value.(*csSlot)
		if slot.static || slot.lastAccess.After(cutoff) {
			continue
		}
		cs.removeSlot(slot)
	}
}

func (cs *ContentStore) removeSlot(slot *csSlot) {
	cs.lru.Remove(slot.elem)
	delete(cs.index, slot.name.Key())
	cs.backend.Delete(slot.hash)
}

// Len returns the number of entries currently held.
func (cs *ContentStore) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.index)
}

// Counters is a snapshot of Content Store statistics, exposed by the
// management surface's `/icnlayer/info` verb.
type Counters struct {
	NCsEntries uint64
	NCsHits    uint64
	NCsMisses  uint64
}

// Counters returns a snapshot of the store's hit/miss/size statistics.
func (cs *ContentStore) Counters() Counters {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return Counters{
		NCsEntries: uint64(len(cs.index)),
		NCsHits:    cs.nHits,
		NCsMisses:  cs.nMisses,
	}
}

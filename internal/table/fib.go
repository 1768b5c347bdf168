package table

import (
	"github.com/picn-go/picn/internal/defn"
)

// FibEntry is one routing entry: a name and the set of upstream faces to
// forward matching Interests to.
type FibEntry struct {
	Name      defn.Name
	Upstreams []defn.FaceID
	Static    bool
	IsSession bool
}

// Identity returns the value snapshot of this entry recorded in a PIT
// entry's FibsTried list.
func (e *FibEntry) Identity() FibIdentity {
	ups := make([]defn.FaceID, len(e.Upstreams))
	copy(ups, e.Upstreams)
	return FibIdentity{Name: e.Name.Clone(), Upstreams: ups}
}

// fibNode is one node of the component-wise trie backing the FIB, the same
// shape as the forwarder's memoryStoreNode trie (std/object/storage), with
// the data payload at each node replaced by a *FibEntry.
type fibNode struct {
	comp     defn.Component
	children map[uint64]*fibNode // keyed by ComponentHash(child.comp)
	entry    *FibEntry
}

func (n *fibNode) child(c defn.Component, create bool) *fibNode {
	h := defn.ComponentHash(c)
	if n.children == nil {
		if !create {
			return nil
		}
		n.children = make(map[uint64]*fibNode)
	}
	if existing, ok := n.children[h]; ok {
		return existing
	}
	if !create {
		return nil
	}
	child := &fibNode{comp: c.Clone()}
	n.children[h] = child
	return child
}

// Fib is the Forwarding Information Base: a trie over name components
// supporting longest-prefix-match lookup, per spec §3.3.
type Fib struct {
	root *fibNode
}

func (f *Fib) String() string { return "fib" }

// NewFib constructs an empty Forwarding Information Base.
func NewFib() *Fib {
	return &Fib{root: &fibNode{}}
}

// Insert adds or replaces the entry for name. No two entries share a name:
// inserting an existing name overwrites it in place.
func (f *Fib) Insert(name defn.Name, upstreams []defn.FaceID, static bool, isSession bool) *FibEntry {
	n := f.root
	for _, c := range name {
		n = n.child(c, true)
	}
	entry := &FibEntry{Name: name.Clone(), Upstreams: append([]defn.FaceID(nil), upstreams...), Static: static, IsSession: isSession}
	n.entry = entry
	return entry
}

// Remove deletes the entry exactly matching name, if any.
func (f *Fib) Remove(name defn.Name) {
	n := f.root
	for _, c := range name {
		n = n.child(c, false)
		if n == nil {
			return
		}
	}
	n.entry = nil
}

// Get returns the entry exactly matching name, if any.
func (f *Fib) Get(name defn.Name) (*FibEntry, bool) {
	n := f.root
	for _, c := range name {
		n = n.child(c, false)
		if n == nil {
			return nil, false
		}
	}
	if n.entry == nil {
		return nil, false
	}
	return n.entry, true
}

// LookupOptions restricts a Lookup search.
type LookupOptions struct {
	// ExcludeUpstream drops any entry all of whose upstreams are a subset
	// of this set (used to avoid forwarding an Interest back out the face
	// it arrived on).
	ExcludeUpstream map[defn.FaceID]bool
	// ExcludeTried drops any entry whose identity matches one already
	// recorded as tried (used by Nack fallback and retransmission).
	ExcludeTried []FibIdentity
}

// excluded reports whether entry should be skipped under opts.
func (o LookupOptions) excluded(entry *FibEntry) bool {
	if len(o.ExcludeUpstream) > 0 {
		allExcluded := true
		for _, u := range entry.Upstreams {
			if !o.ExcludeUpstream[u] {
				allExcluded = false
				break
			}
		}
		if allExcluded {
			return true
		}
	}
	for _, tried := range o.ExcludeTried {
		if tried.Equal(entry.Identity()) {
			return true
		}
	}
	return false
}

// Lookup performs longest-prefix match against name, walking the trie as
// far as possible and then backtracking to the nearest ancestor (inclusive)
// holding a non-excluded entry. Among entries at the same depth there is
// only ever one, since the FIB has at most one entry per name; "first
// insertion wins" for equal-length prefixes is therefore automatic (the
// search always returns the deepest, i.e. longest, match).
func (f *Fib) Lookup(name defn.Name, opts LookupOptions) (*FibEntry, bool) {
	// Walk down recording every node with an entry along the path.
	path := make([]*fibNode, 0, len(name)+1)
	n := f.root
	path = append(path, n)
	for _, c := range name {
		n = n.child(c, false)
		if n == nil {
			break
		}
		path = append(path, n)
	}

	for i := len(path) - 1; i >= 0; i-- {
		entry := path[i].entry
		if entry == nil {
			continue
		}
		if opts.excluded(entry) {
			continue
		}
		return entry, true
	}
	return nil, false
}

// Clear removes every non-static entry, preserving static ones in place
// (§3.3 invariant: "static entries are preserved by clear()").
func (f *Fib) Clear() {
	f.root = clearNode(f.root)
}

func clearNode(n *fibNode) *fibNode {
	if n == nil {
		return nil
	}
	if n.entry != nil && !n.entry.Static {
		n.entry = nil
	}
	for h, child := range n.children {
		cleared := clearNode(child)
		if cleared == nil || (cleared.entry == nil && len(cleared.children) == 0) {
			delete(n.children, h)
		}
	}
	return n
}

// All returns every entry in the FIB, for management "list" dispatch.
func (f *Fib) All() []*FibEntry {
	var out []*FibEntry
	var walk func(n *fibNode)
	walk = func(n *fibNode) {
		if n.entry != nil {
			out = append(out, n.entry)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(f.root)
	return out
}

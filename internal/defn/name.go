// Package defn holds the core value types of the forwarding plane: names,
// the three packet kinds, and face identifiers. Nothing here performs I/O;
// it mirrors the role of the forwarder's std/encoding name/component types,
// simplified to the spec's opaque slash-delimited byte components instead
// of NDN's typed TLV components.
package defn

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Component is a single opaque byte-string segment of a Name.
type Component []byte

// Equal reports whether two components hold identical bytes.
func (c Component) Equal(o Component) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the component for display. Components are opaque bytes,
// so this is not guaranteed to round-trip through NameFromStr.
func (c Component) String() string {
	return string(c)
}

// Clone returns an independent copy of the component.
func (c Component) Clone() Component {
	out := make(Component, len(c))
	copy(out, c)
	return out
}

// Name is an ordered sequence of opaque components. Equality and
// prefix-matching are component-wise, never a byte-string comparison of the
// joined form.
type Name []Component

// NameFromStr splits a "/"-delimited string into a Name. A leading slash is
// optional; empty components (from a leading/trailing/doubled slash) are
// dropped so that "/a/b", "a/b/", and "a//b" all parse the same way.
func NameFromStr(s string) Name {
	parts := strings.Split(s, "/")
	name := make(Name, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		name = append(name, Component(p))
	}
	return name
}

// String joins the name's components with "/", with a leading slash.
func (n Name) String() string {
	sb := strings.Builder{}
	for _, c := range n {
		sb.WriteByte('/')
		sb.Write(c)
	}
	if len(n) == 0 {
		return "/"
	}
	return sb.String()
}

// Equal reports whether two names have the same components in the same
// order.
func (n Name) Equal(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether n's component sequence equals the leading
// components of o. Every name is a prefix of itself.
func (n Name) IsPrefixOf(o Name) bool {
	if len(n) > len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Append returns a new Name with the given components added at the end,
// leaving the receiver untouched.
func (n Name) Append(comps ...Component) Name {
	out := make(Name, 0, len(n)+len(comps))
	out = append(out, n...)
	out = append(out, comps...)
	return out
}

// Clone returns a deep copy of the name.
func (n Name) Clone() Name {
	out := make(Name, len(n))
	for i, c := range n {
		out[i] = c.Clone()
	}
	return out
}

// Key returns a byte-exact encoding of the name suitable as a Go map key
// (length-prefixed per component, so no sequence of components can collide
// with a different sequence regardless of the bytes they contain). Used
// wherever exact-match lookup is required, such as the PIT index.
func (n Name) Key() string {
	sb := strings.Builder{}
	for _, c := range n {
		sb.WriteByte(byte(len(c) >> 24))
		sb.WriteByte(byte(len(c) >> 16))
		sb.WriteByte(byte(len(c) >> 8))
		sb.WriteByte(byte(len(c)))
		sb.Write(c)
	}
	return sb.String()
}

// Hash returns a fast, non-cryptographic digest of the name, used as the
// key under which the Content Store's backend holds an entry's payload
// (the CS and PIT indexes are keyed by Key, the FIB trie by
// ComponentHash). Two equal names always hash equal; collisions are
// possible, and the Content Store does not detect them.
func (n Name) Hash() uint64 {
	d := xxhash.New()
	for _, c := range n {
		d.Write(c)
		d.Write([]byte{0}) // separator so ("ab","c") != ("a","bc")
	}
	return d.Sum64()
}

// ComponentHash hashes a single component for use as a FIB trie edge key.
func ComponentHash(c Component) uint64 {
	return xxhash.Sum64(c)
}

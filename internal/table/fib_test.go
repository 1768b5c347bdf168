package table

import (
	"testing"

	"github.com/picn-go/picn/internal/defn"
	"github.com/stretchr/testify/assert"
)

func TestFibLongestPrefixMatch(t *testing.T) {
	fib := NewFib()
	fib.Insert(defn.NameFromStr("/a"), []defn.FaceID{1}, false, false)
	fib.Insert(defn.NameFromStr("/a/b"), []defn.FaceID{2}, false, false)

	entry, ok := fib.Lookup(defn.NameFromStr("/a/b/c"), LookupOptions{})
	assert.True(t, ok)
	assert.True(t, entry.Name.Equal(defn.NameFromStr("/a/b")))

	entry, ok = fib.Lookup(defn.NameFromStr("/a/x"), LookupOptions{})
	assert.True(t, ok)
	assert.True(t, entry.Name.Equal(defn.NameFromStr("/a")))

	_, ok = fib.Lookup(defn.NameFromStr("/unrelated"), LookupOptions{})
	assert.False(t, ok)
}

func TestFibLookupExcludesUpstream(t *testing.T) {
	fib := NewFib()
	fib.Insert(defn.NameFromStr("/a"), []defn.FaceID{1}, false, false)

	_, ok := fib.Lookup(defn.NameFromStr("/a"), LookupOptions{ExcludeUpstream: map[defn.FaceID]bool{1: true}})
	assert.False(t, ok, "an entry whose only upstream is excluded must not match")
}

func TestFibLookupFallsBackPastExcludedLongerMatch(t *testing.T) {
	fib := NewFib()
	fib.Insert(defn.NameFromStr("/a"), []defn.FaceID{1}, false, false)
	fib.Insert(defn.NameFromStr("/a/b"), []defn.FaceID{2}, false, false)

	entry, ok := fib.Lookup(defn.NameFromStr("/a/b/c"), LookupOptions{ExcludeUpstream: map[defn.FaceID]bool{2: true}})
	assert.True(t, ok)
	assert.True(t, entry.Name.Equal(defn.NameFromStr("/a")))
}

func TestFibLookupExcludesTriedIdentity(t *testing.T) {
	fib := NewFib()
	entry := fib.Insert(defn.NameFromStr("/a"), []defn.FaceID{1}, false, false)

	_, ok := fib.Lookup(defn.NameFromStr("/a"), LookupOptions{ExcludeTried: []FibIdentity{entry.Identity()}})
	assert.False(t, ok)
}

func TestFibClearPreservesStaticEntries(t *testing.T) {
	fib := NewFib()
	fib.Insert(defn.NameFromStr("/static"), []defn.FaceID{1}, true, false)
	fib.Insert(defn.NameFromStr("/dynamic"), []defn.FaceID{2}, false, false)

	fib.Clear()

	_, ok := fib.Get(defn.NameFromStr("/static"))
	assert.True(t, ok)
	_, ok = fib.Get(defn.NameFromStr("/dynamic"))
	assert.False(t, ok)
}

func TestFibRemoveAndGet(t *testing.T) {
	fib := NewFib()
	fib.Insert(defn.NameFromStr("/a/b"), []defn.FaceID{1}, false, false)

	_, ok := fib.Get(defn.NameFromStr("/a/b"))
	assert.True(t, ok)

	fib.Remove(defn.NameFromStr("/a/b"))
	_, ok = fib.Get(defn.NameFromStr("/a/b"))
	assert.False(t, ok)
}

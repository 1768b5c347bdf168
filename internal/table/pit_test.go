package table

import (
	"testing"

	"github.com/picn-go/picn/internal/defn"
	"github.com/stretchr/testify/assert"
)

func TestPitInsertGetRemove(t *testing.T) {
	pit := NewPit()
	name := defn.NameFromStr("/a/b")

	_, ok := pit.Get(name)
	assert.False(t, ok)

	entry := NewEntry(name)
	pit.Insert(entry)

	got, ok := pit.Get(name)
	assert.True(t, ok)
	assert.Same(t, entry, got)

	pit.Remove(name)
	_, ok = pit.Get(name)
	assert.False(t, ok)
}

func TestPitEntryAddInFaceDeduplicates(t *testing.T) {
	entry := NewEntry(defn.NameFromStr("/a"))
	entry.AddInFace(1, false)
	entry.AddInFace(1, false)
	entry.AddInFace(2, true)

	assert.Equal(t, []defn.FaceID{1, 2}, entry.InFaces)
	assert.Equal(t, []bool{false, true}, entry.Local)
}

func TestPitEntryRemoveInFaces(t *testing.T) {
	entry := NewEntry(defn.NameFromStr("/a"))
	entry.AddInFace(1, true)
	entry.AddInFace(2, false)
	entry.AddInFace(3, true)

	entry.RemoveInFaces(map[defn.FaceID]bool{1: true, 3: true})

	assert.Equal(t, []defn.FaceID{2}, entry.InFaces)
	assert.Equal(t, []bool{false}, entry.Local)
}

func TestFibIdentityEqualIgnoresUpstreamOrder(t *testing.T) {
	a := FibIdentity{Name: defn.NameFromStr("/a"), Upstreams: []defn.FaceID{1, 2}}
	b := FibIdentity{Name: defn.NameFromStr("/a"), Upstreams: []defn.FaceID{2, 1}}
	assert.True(t, a.Equal(b))

	c := FibIdentity{Name: defn.NameFromStr("/a"), Upstreams: []defn.FaceID{1, 3}}
	assert.False(t, a.Equal(c))
}

func TestPitEntryHasTried(t *testing.T) {
	entry := NewEntry(defn.NameFromStr("/a"))
	id := FibIdentity{Name: defn.NameFromStr("/a"), Upstreams: []defn.FaceID{1}}
	assert.False(t, entry.HasTried(id))

	entry.FibsTried = append(entry.FibsTried, id)
	assert.True(t, entry.HasTried(id))
}

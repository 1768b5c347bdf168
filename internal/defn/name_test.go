package defn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFromStrRoundTrip(t *testing.T) {
	n := NameFromStr("/a/b/c")
	assert.Equal(t, "/a/b/c", n.String())
	assert.Len(t, n, 3)
}

func TestNameFromStrDropsEmptyComponents(t *testing.T) {
	n := NameFromStr("/a//b/")
	assert.Equal(t, "/a/b", n.String())
}

func TestNameIsPrefixOf(t *testing.T) {
	assert.True(t, NameFromStr("/a/b").IsPrefixOf(NameFromStr("/a/b/c")))
	assert.True(t, NameFromStr("/a/b").IsPrefixOf(NameFromStr("/a/b")))
	assert.False(t, NameFromStr("/a/b").IsPrefixOf(NameFromStr("/a")))
	assert.False(t, NameFromStr("/a/x").IsPrefixOf(NameFromStr("/a/b/c")))
}

func TestNameEqual(t *testing.T) {
	assert.True(t, NameFromStr("/a/b").Equal(NameFromStr("/a/b")))
	assert.False(t, NameFromStr("/a/b").Equal(NameFromStr("/a/c")))
}

func TestNameKeyDistinguishesComponentBoundaries(t *testing.T) {
	// "/ab/c" and "/a/bc" must never collide in the exact-match index,
	// even though their concatenated bytes are identical.
	a := NameFromStr("/ab/c")
	b := NameFromStr("/a/bc")
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestNameAppendDoesNotMutateReceiver(t *testing.T) {
	base := NameFromStr("/a")
	extended := base.Append(Component("b"))
	assert.Equal(t, "/a", base.String())
	assert.Equal(t, "/a/b", extended.String())
}

func TestNameCloneIsIndependent(t *testing.T) {
	orig := NameFromStr("/a/b")
	clone := orig.Clone()
	clone[0] = Component("x")
	assert.Equal(t, "/a/b", orig.String())
}

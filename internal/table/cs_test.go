package table

import (
	"testing"
	"time"

	"github.com/picn-go/picn/internal/defn"
	"github.com/stretchr/testify/assert"
)

func TestContentStoreInsertAndFind(t *testing.T) {
	cs := NewContentStore(10, nil)
	name := defn.NameFromStr("/a/b/c")

	_, ok := cs.Find(name)
	assert.False(t, ok)

	cs.Insert(name, []byte("payload"), false)
	payload, ok := cs.Find(name)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), payload)

	counters := cs.Counters()
	assert.Equal(t, uint64(1), counters.NCsEntries)
	assert.Equal(t, uint64(1), counters.NCsHits)
	assert.Equal(t, uint64(1), counters.NCsMisses)
}

func TestContentStoreEvictsLeastRecentlyUsed(t *testing.T) {
	cs := NewContentStore(2, nil)
	cs.Insert(defn.NameFromStr("/a"), []byte("1"), false)
	cs.Insert(defn.NameFromStr("/b"), []byte("2"), false)

	// Touch /a so it becomes more recently used than /b.
	_, ok := cs.Find(defn.NameFromStr("/a"))
	assert.True(t, ok)

	cs.Insert(defn.NameFromStr("/c"), []byte("3"), false)

	_, ok = cs.Find(defn.NameFromStr("/b"))
	assert.False(t, ok, "/b should have been evicted as least recently used")

	_, ok = cs.Find(defn.NameFromStr("/a"))
	assert.True(t, ok)
}

func TestContentStoreStaticEntriesSurviveEviction(t *testing.T) {
	cs := NewContentStore(1, nil)
	cs.Insert(defn.NameFromStr("/static"), []byte("1"), true)
	cs.Insert(defn.NameFromStr("/other"), []byte("2"), false)

	_, ok := cs.Find(defn.NameFromStr("/static"))
	assert.True(t, ok, "static entries are never evicted for capacity")
}

func TestContentStoreAgeOut(t *testing.T) {
	cs := NewContentStore(10, nil)
	cs.Insert(defn.NameFromStr("/stale"), []byte("1"), false)
	cs.Insert(defn.NameFromStr("/static"), []byte("2"), true)

	// Backdate the stale entry's last access so AgeOut considers it expired.
	cs.index[defn.NameFromStr("/stale").Key()].lastAccess = time.Now().Add(-time.Hour)

	cs.AgeOut(time.Minute)

	_, ok := cs.Find(defn.NameFromStr("/stale"))
	assert.False(t, ok)

	_, ok = cs.Find(defn.NameFromStr("/static"))
	assert.True(t, ok, "static entries are exempt from TTL aging")
}

func TestContentStoreBadgerBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewBadgerBackend(dir)
	assert.NoError(t, err)
	defer backend.Close()

	cs := NewContentStore(10, backend)
	cs.Insert(defn.NameFromStr("/durable"), []byte("payload"), false)

	payload, ok := cs.Find(defn.NameFromStr("/durable"))
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), payload)
}

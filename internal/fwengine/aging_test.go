package fwengine

import (
	"testing"
	"time"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/table"
	"github.com/stretchr/testify/assert"
)

func TestAgingRetransmitsBeforeExhaustingRetries(t *testing.T) {
	e, sender := newTestEngine()
	name := defn.NameFromStr("/a")
	e.Fib().Insert(name, []defn.FaceID{9}, false, false)

	e.HandleEnvelope(1, &defn.Interest{NameV: name})
	sender.sent = nil

	entry, ok := e.Pit().Get(name)
	assert.True(t, ok)
	entry.Timestamp = time.Now().Add(-2 * e.cfg.PitTimeout)

	e.ageOnce()

	assert.Len(t, sender.sent, 1)
	assert.Equal(t, defn.FaceID(9), sender.sent[0].face)
	assert.Equal(t, 1, entry.Retransmits)
	_, stillPending := e.Pit().Get(name)
	assert.True(t, stillPending, "a retransmitted entry stays in the PIT")
}

func TestAgingRetransmitsEvenWhenNotYetExpired(t *testing.T) {
	e, sender := newTestEngine()
	name := defn.NameFromStr("/a")
	e.Fib().Insert(name, []defn.FaceID{9}, false, false)

	e.HandleEnvelope(1, &defn.Interest{NameV: name})
	sender.sent = nil

	entry, ok := e.Pit().Get(name)
	assert.True(t, ok)
	// Timestamp is fresh, well inside PitTimeout: every aging tick still
	// retransmits, not only ticks past the timeout.
	entry.Timestamp = time.Now()

	e.ageOnce()

	assert.Len(t, sender.sent, 1)
	assert.Equal(t, 1, entry.Retransmits)
	_, stillPending := e.Pit().Get(name)
	assert.True(t, stillPending)
}

func TestAgingRemovesEntryAfterExhaustingRetriesAndNacksLocalDownstreams(t *testing.T) {
	e, sender := newTestEngine()
	name := defn.NameFromStr("/a")
	e.Fib().Insert(name, []defn.FaceID{9}, false, false)

	e.HandleEnvelope(defn.LocalApp, &defn.Interest{NameV: name})
	sender.sent = nil

	entry, ok := e.Pit().Get(name)
	assert.True(t, ok)
	entry.Timestamp = time.Now().Add(-2 * e.cfg.PitTimeout)
	entry.Retransmits = e.cfg.PitRetransmits + 1

	e.ageOnce()

	_, stillPending := e.Pit().Get(name)
	assert.False(t, stillPending, "a PIT entry past its retry budget must be removed")

	assert.Len(t, sender.sent, 1)
	nack, ok := sender.sent[0].pkt.(*defn.Nack)
	assert.True(t, ok)
	assert.Equal(t, defn.NackPitTimeout, nack.Reason)
	assert.Equal(t, defn.LocalApp, sender.sent[0].face)
}

func TestAgingSkipsSessionEntriesEntirely(t *testing.T) {
	e, sender := newTestEngine()
	sidName := defn.NameFromStr("/sid/tok123")
	entry := table.NewEntry(sidName)
	entry.IsSession = true
	entry.Timestamp = time.Now().Add(-24 * time.Hour)
	e.Pit().Insert(entry)

	e.ageOnce()

	assert.Empty(t, sender.sent, "a session PIT entry must never be retransmitted or timed out")
	_, stillPending := e.Pit().Get(sidName)
	assert.True(t, stillPending)
}

func TestAgingAlsoAgesOutContentStore(t *testing.T) {
	e, _ := newTestEngine()
	name := defn.NameFromStr("/stale")
	e.Cs().Insert(name, []byte("x"), false)

	e.ageOnce()
	_, ok := e.Cs().Find(name)
	assert.True(t, ok, "a freshly-inserted entry must not be aged out immediately")

	// With a zero TTL every non-static entry is already past it.
	e.cfg.CsTTL = 0
	e.ageOnce()
	_, ok = e.Cs().Find(name)
	assert.False(t, ok, "an entry older than CsTTL must be aged out")
}

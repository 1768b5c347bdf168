package repo

import (
	"testing"

	"github.com/picn-go/picn/internal/codec"
	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/face"
	"github.com/picn-go/picn/internal/fwengine"
	"github.com/picn-go/picn/internal/node"
	"github.com/picn-go/picn/internal/table"
	"github.com/stretchr/testify/assert"
)

const (
	testSessionInitiatorTag  = "open"
	testSessionIdentifierTag = "sid"
)

func newTestRepoSetup() (*fwengine.Engine, *Repo, *face.Table) {
	cfg := fwengine.DefaultConfig()
	cfg.DeliverInterestsToApp = true
	cfg.SessionIdentifierTag = testSessionIdentifierTag

	cs := table.NewContentStore(1024, nil)
	pit := table.NewPit()
	fib := table.NewFib()
	faces := face.NewTable(10)

	sender := &node.Sender{Faces: faces}
	engine := fwengine.New(cfg, cs, pit, fib, sender)

	r := New(engine, NewMemoryStore(), defn.NameFromStr("/repo"), testSessionInitiatorTag, testSessionIdentifierTag)
	sender.App = r

	return engine, r, faces
}

func addChanFace(faces *face.Table) (*face.ChanFace, defn.FaceID) {
	f := faces.Add(func(id defn.FaceID) face.Face { return face.NewChanFace(id, "fetcher", false, 4) })
	cf := f.(*face.ChanFace)
	return cf, f.ID()
}

func decodeTestContent(t *testing.T, raw []byte) *defn.Content {
	t.Helper()
	pkt := codec.Decode(raw)
	content, ok := pkt.(*defn.Content)
	assert.True(t, ok, "expected a Content frame")
	return content
}

func TestHandshakeStep2IssuesTokenToFetcher(t *testing.T) {
	engine, _, faces := newTestRepoSetup()
	cf, fid := addChanFace(faces)

	openName := defn.NameFromStr("/repo/" + testSessionInitiatorTag)
	engine.HandleEnvelope(fid, &defn.Interest{NameV: openName})

	raw := <-cf.Out()
	content := decodeTestContent(t, raw)
	assert.NotEmpty(t, content.PayloadV, "the fetcher must receive a non-empty session token")
}

func TestHandshakeStep3PinsSessionFibAndPromotesSession(t *testing.T) {
	engine, r, faces := newTestRepoSetup()
	cf, fid := addChanFace(faces)

	openName := defn.NameFromStr("/repo/" + testSessionInitiatorTag)
	engine.HandleEnvelope(fid, &defn.Interest{NameV: openName})
	tokenRaw := <-cf.Out()
	tok := string(decodeTestContent(t, tokenRaw).PayloadV)

	sidName := defn.NameFromStr(testSessionIdentifierTag).Append(defn.Component(tok))
	engine.HandleEnvelope(fid, &defn.Interest{NameV: sidName})

	echoedRaw := <-cf.Out()
	echoed := decodeTestContent(t, echoedRaw)
	assert.Equal(t, tok, string(echoed.PayloadV))

	fibEntry, ok := engine.Fib().Get(sidName)
	assert.True(t, ok, "handshake step 3 must pin a static session FIB entry")
	assert.True(t, fibEntry.Static)

	sess, found, err := r.store.Get(tok)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.True(t, sess.Running)

	entry, pending := engine.Pit().Get(sidName)
	assert.True(t, pending, "a session PIT entry must survive the handshake")
	assert.True(t, entry.IsSession)
}

func TestRepoPutPushesDataToSubscribedFetcher(t *testing.T) {
	engine, r, faces := newTestRepoSetup()
	cf, fid := addChanFace(faces)

	sidName := defn.NameFromStr(testSessionIdentifierTag).Append(defn.Component("tok1"))
	// A fetcher subscribes by sending an Interest for the session name.
	// With no pending session under this token the repo has nothing to
	// answer yet, but the Interest still leaves a PIT entry recording the
	// fetcher's face -- which is all Put below needs to deliver through.
	engine.HandleEnvelope(fid, &defn.Interest{NameV: sidName})

	r.Put(sidName, []byte("chunk-1"))

	raw := <-cf.Out()
	content := decodeTestContent(t, raw)
	assert.Equal(t, []byte("chunk-1"), content.PayloadV)
}

func TestHandshakeStep3UnknownTokenIsIgnored(t *testing.T) {
	_, r, _ := newTestRepoSetup()

	sidName := defn.NameFromStr(testSessionIdentifierTag).Append(defn.Component("no-such-token"))
	r.handshakeStep3Answer(1, sidName)

	_, found, err := r.store.Get("no-such-token")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestRepoHandleContentTerminateDeletesSessionAndFib(t *testing.T) {
	engine, r, _ := newTestRepoSetup()
	token := "tok-term"
	sidName := defn.NameFromStr(testSessionIdentifierTag).Append(defn.Component(token))

	assert.NoError(t, r.store.Put(&Session{Token: token, SidName: sidName, Running: true}))
	engine.Fib().Insert(sidName, []defn.FaceID{5}, true, true)

	r.Deliver(defn.LocalApp, &defn.Content{NameV: sidName, PayloadV: []byte("terminate")})

	_, found, err := r.store.Get(token)
	assert.NoError(t, err)
	assert.False(t, found, "a terminate Content must delete the session from the store")

	_, ok := engine.Fib().Get(sidName)
	assert.False(t, ok, "a terminate Content must remove the pinned session FIB entry")
}

func TestRepoPublishServesOrdinaryInterest(t *testing.T) {
	engine, r, faces := newTestRepoSetup()
	cf, fid := addChanFace(faces)

	name := defn.NameFromStr("/repo/widget")
	r.Publish(name, []byte("widget-data"))

	engine.HandleEnvelope(fid, &defn.Interest{NameV: name})

	raw := <-cf.Out()
	content := decodeTestContent(t, raw)
	assert.Equal(t, []byte("widget-data"), content.PayloadV)
}

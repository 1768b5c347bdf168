package mgmt

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/face"
	"github.com/picn-go/picn/internal/fwengine"
	"github.com/picn-go/picn/internal/table"
	"github.com/stretchr/testify/assert"
)

func newTestServer() (*Server, *fwengine.Engine) {
	cs := table.NewContentStore(1024, nil)
	pit := table.NewPit()
	fib := table.NewFib()
	faces := face.NewTable(10)
	engine := fwengine.New(fwengine.DefaultConfig(), cs, pit, fib, &noopSender{})

	srv := NewServer("127.0.0.1:0", engine, faces, nil)
	return srv, engine
}

type noopSender struct{}

func (*noopSender) Send(defn.FaceID, defn.Packet) {}
func (*noopSender) AppConnected() bool            { return false }

func doGet(srv *Server, path string) (int, string) {
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, string(body)
}

func TestNewForwardingRuleInstallsFibEntry(t *testing.T) {
	srv, engine := newTestServer()

	code, body := doGet(srv, "/icnlayer/newforwardingrule/%2Fa%2Fb:1,2")
	assert.Equal(t, 200, code)
	assert.Equal(t, "newforwardingrule OK\r\n", body)

	entry, ok := engine.Fib().Get(defn.NameFromStr("/a/b"))
	assert.True(t, ok)
	assert.Equal(t, []defn.FaceID{1, 2}, entry.Upstreams)
	assert.True(t, entry.Static)
}

func TestNewForwardingRuleHonoursStaticQueryParam(t *testing.T) {
	srv, engine := newTestServer()

	code, _ := doGet(srv, "/icnlayer/newforwardingrule/%2Fa%2Fb:1?static=0")
	assert.Equal(t, 200, code)

	entry, ok := engine.Fib().Get(defn.NameFromStr("/a/b"))
	assert.True(t, ok)
	assert.False(t, entry.Static)
}

func TestInfoReportsStoreCounters(t *testing.T) {
	srv, engine := newTestServer()
	engine.Cs().Insert(defn.NameFromStr("/a"), []byte("x"), false)
	engine.Cs().Find(defn.NameFromStr("/a"))

	code, body := doGet(srv, "/icnlayer/info")
	assert.Equal(t, 200, code)
	assert.Contains(t, body, "nCsEntries=1")
	assert.Contains(t, body, "nCsHits=1")
}

func TestNewForwardingRuleRejectsMalformedArgument(t *testing.T) {
	srv, _ := newTestServer()

	code, body := doGet(srv, "/icnlayer/newforwardingrule/missing-colon")
	assert.Equal(t, 400, code)
	assert.Contains(t, body, "newforwardingrule ERROR")
}

func TestNewForwardingRuleRejectsNonNumericFace(t *testing.T) {
	srv, _ := newTestServer()

	code, _ := doGet(srv, "/icnlayer/newforwardingrule/%2Fa:notanumber")
	assert.Equal(t, 400, code)
}

func TestNewContentSeedsContentStore(t *testing.T) {
	srv, engine := newTestServer()

	code, body := doGet(srv, "/icnlayer/newcontent/%2Fa%2Fb:hello")
	assert.Equal(t, 200, code)
	assert.Equal(t, "newcontent OK\r\n", body)

	payload, ok := engine.Cs().Find(defn.NameFromStr("/a/b"))
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), payload)
}

func TestNewContentRejectsMalformedArgument(t *testing.T) {
	srv, _ := newTestServer()

	code, body := doGet(srv, "/icnlayer/newcontent/missing-colon")
	assert.Equal(t, 400, code)
	assert.Contains(t, body, "newcontent ERROR")
}

func TestShutdownRepliesBeforeInvokingCallback(t *testing.T) {
	called := make(chan struct{}, 1)
	cs := table.NewContentStore(1024, nil)
	pit := table.NewPit()
	fib := table.NewFib()
	faces := face.NewTable(10)
	engine := fwengine.New(fwengine.DefaultConfig(), cs, pit, fib, &noopSender{})
	srv := NewServer("127.0.0.1:0", engine, faces, func() { called <- struct{}{} })

	code, body := doGet(srv, "/shutdown")
	assert.Equal(t, 200, code)
	assert.Equal(t, "shutdown OK\r\n", body)

	<-called
}

func TestNewFaceRejectsUnreachableAddress(t *testing.T) {
	srv, _ := newTestServer()

	// Port 1 on a loopback address with nothing listening must fail to
	// dial, exercising the fail() path rather than a real TCP handshake.
	code, body := doGet(srv, "/linklayer/newface/127.0.0.1:1")
	assert.Equal(t, 400, code)
	assert.Contains(t, body, "newface ERROR")
}

// Package mgmt implements the textual HTTP-like management surface of
// spec §6.4: a small set of GET endpoints for standing up faces,
// installing FIB routes, seeding the Content Store, and shutting the
// node down. It is dispatched by verb the way the forwarder's mgmt
// package dispatches NDN management Interests by verb
// (fw/mgmt/cs.go, fw/mgmt/fib.go) -- only here the "Interest" is an
// HTTP GET and the "ControlResponse" is a one-line text body.
package mgmt

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
	"github.com/picn-go/picn/internal/codec"
	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/errs"
	"github.com/picn-go/picn/internal/face"
	"github.com/picn-go/picn/internal/fwengine"
	"github.com/picn-go/picn/internal/log"
)

// routeParams holds the optional query parameters accepted on
// newforwardingrule, decoded the way the forwarder's mgmt module decodes
// a ControlParameters TLV block (fw/mgmt/helpers.go's
// decodeControlParameters), only here the wire shape is a URL query
// string rather than TLV, so gorilla/schema fills the struct instead of
// a hand-rolled TLV parser.
type routeParams struct {
	Static bool `schema:"static"`
}

var routeDecoder = schema.NewDecoder()

func init() {
	routeDecoder.IgnoreUnknownKeys(true)
}

// dispatchIncoming decodes a raw frame and, if it parses, hands it to the
// engine -- the link-layer-to-ICN edge of the queue contract in §6.1,
// collapsed here to a direct call since faces run on their own receive
// goroutines already (no separate queue-draining stage is needed to get
// the "independent thread of control per stage" property §5 asks for).
func dispatchIncoming(engine *fwengine.Engine, faceID defn.FaceID, raw []byte) {
	pkt := codec.Decode(raw)
	if pkt == nil {
		codec.LogDrop("decode failed", raw)
		return
	}
	engine.HandleEnvelope(faceID, pkt)
}

// Server serves the management surface over HTTP, modeled on the
// forwarder's mgmt.Thread but with one textual verb per endpoint instead
// of an NDN-encoded control protocol.
type Server struct {
	engine *fwengine.Engine
	faces  *face.Table
	http   *http.Server
	shut   func()
}

func (s *Server) String() string { return "mgmt" }

// NewServer constructs a management server bound to addr. shutdown is
// invoked by the /shutdown verb to begin node teardown (§6.4, §5
// "stop accepting on all faces, drain queues best-effort, cancel the
// aging timer").
func NewServer(addr string, engine *fwengine.Engine, faces *face.Table, shutdown func()) *Server {
	s := &Server{engine: engine, faces: faces, shut: shutdown}
	mux := http.NewServeMux()
	mux.HandleFunc("/linklayer/newface/", s.newFace)
	mux.HandleFunc("/icnlayer/newforwardingrule/", s.newForwardingRule)
	mux.HandleFunc("/icnlayer/newcontent/", s.newContent)
	mux.HandleFunc("/icnlayer/info", s.info)
	mux.HandleFunc("/shutdown", s.shutdown)
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe blocks serving management requests until the server is
// closed.
func (s *Server) ListenAndServe() error {
	log.Info(s, "Management surface listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close stops serving management requests.
func (s *Server) Close() error {
	return s.http.Close()
}

// reply writes a response in the exact wire shape spec §6.4 requires:
// a plain 200 OK with a one-line "<verb> OK[:<value>]" body. net/http
// handles request parsing and connection management; only the body
// format is hand-rolled, since it is not a real HTTP API response.
func reply(w http.ResponseWriter, verb, value string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	if value == "" {
		fmt.Fprintf(w, "%s OK\r\n", verb)
	} else {
		fmt.Fprintf(w, "%s OK:%s\r\n", verb, value)
	}
}

func (s *Server) fail(w http.ResponseWriter, verb string, err error) {
	log.Warn(s, "Management request failed", "verb", verb, "err", err)
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, "%s ERROR:%s\r\n", verb, err)
}

// newFace handles GET /linklayer/newface/<host>:<port>.
func (s *Server) newFace(w http.ResponseWriter, r *http.Request) {
	arg := strings.TrimPrefix(r.URL.Path, "/linklayer/newface/")
	if arg == "" {
		s.fail(w, "newface", errs.ErrInvalidValue{Item: "newface argument", Value: arg})
		return
	}

	recv := func(faceID defn.FaceID, raw []byte) {
		dispatchIncoming(s.engine, faceID, raw)
	}

	f, err := face.DialTCP(s.faces, arg, recv)
	if err != nil {
		s.fail(w, "newface", err)
		return
	}
	reply(w, "newface", strconv.FormatUint(uint64(f.ID()), 10))
}

// newForwardingRule handles
// GET /icnlayer/newforwardingrule/<urlencoded-name>:<fid>[,<fid>...].
func (s *Server) newForwardingRule(w http.ResponseWriter, r *http.Request) {
	arg := strings.TrimPrefix(r.URL.Path, "/icnlayer/newforwardingrule/")
	nameStr, fidsStr, ok := strings.Cut(arg, ":")
	if !ok {
		s.fail(w, "newforwardingrule", errs.ErrInvalidValue{Item: "newforwardingrule argument", Value: arg})
		return
	}
	name, err := url.QueryUnescape(nameStr)
	if err != nil {
		s.fail(w, "newforwardingrule", err)
		return
	}

	var upstreams []defn.FaceID
	for _, part := range strings.Split(fidsStr, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			s.fail(w, "newforwardingrule", err)
			return
		}
		upstreams = append(upstreams, defn.FaceID(n))
	}

	params := routeParams{Static: true}
	if err := routeDecoder.Decode(&params, r.URL.Query()); err != nil {
		s.fail(w, "newforwardingrule", err)
		return
	}

	s.engine.Fib().Insert(defn.NameFromStr(name), upstreams, params.Static, false)
	reply(w, "newforwardingrule", "")
}

// newContent handles GET /icnlayer/newcontent/<urlencoded-name>:<payload>.
func (s *Server) newContent(w http.ResponseWriter, r *http.Request) {
	arg := strings.TrimPrefix(r.URL.Path, "/icnlayer/newcontent/")
	nameStr, payload, ok := strings.Cut(arg, ":")
	if !ok {
		s.fail(w, "newcontent", errs.ErrInvalidValue{Item: "newcontent argument", Value: arg})
		return
	}
	name, err := url.QueryUnescape(nameStr)
	if err != nil {
		s.fail(w, "newcontent", err)
		return
	}
	s.engine.Cs().Insert(defn.NameFromStr(name), []byte(payload), true)
	reply(w, "newcontent", "")
}

// info handles GET /icnlayer/info, reporting the same counters the
// forwarder's forwarder-status module exposes through NDN management
// (fw/mgmt/forwarder-status.go's Counters struct), only here as a plain
// text line instead of a TLV-encoded GeneralStatus.
func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	cs := s.engine.Cs().Counters()
	nPit := s.engine.Pit().Len()
	nFib := len(s.engine.Fib().All())
	reply(w, "info", fmt.Sprintf("nCsEntries=%d,nCsHits=%d,nCsMisses=%d,nPitEntries=%d,nFibEntries=%d",
		cs.NCsEntries, cs.NCsHits, cs.NCsMisses, nPit, nFib))
}

// shutdown handles GET /shutdown.
func (s *Server) shutdown(w http.ResponseWriter, r *http.Request) {
	reply(w, "shutdown", "")
	if s.shut != nil {
		go s.shut()
	}
}

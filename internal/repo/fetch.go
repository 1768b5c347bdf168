package repo

import (
	"fmt"
	"sync"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/fwengine"
	"github.com/picn-go/picn/internal/log"
)

// Fetch is the fetcher side of the session overlay handshake (§4.5): it
// asks a repository prefix to open a session and, once the token comes
// back, subscribes to the session channel so ordinary push Content can
// flow both ways without further Interest/PIT churn.
type Fetch struct {
	engine *fwengine.Engine
	mu     sync.Mutex

	sessionIdentifierTag string
	onOpen               map[string]func(sidName defn.Name)
}

// NewFetch constructs a Fetch client bound to engine.
func NewFetch(engine *fwengine.Engine, sessionIdentifierTag string) *Fetch {
	return &Fetch{
		engine:               engine,
		sessionIdentifierTag: sessionIdentifierTag,
		onOpen:               make(map[string]func(sidName defn.Name)),
	}
}

func (f *Fetch) String() string { return "fetch" }

// Open starts the handshake: it sends
// Interest(/<prefix>/<session_initiator_tag>) as if from the local
// application, and arranges for onOpen to be called with the session's
// sid_name once the repository's token comes back.
func (f *Fetch) Open(prefix defn.Name, sessionInitiatorTag string, onOpen func(sidName defn.Name)) {
	name := prefix.Append(defn.Component(sessionInitiatorTag))
	f.mu.Lock()
	f.onOpen[name.Key()] = onOpen
	f.mu.Unlock()
	f.engine.HandleEnvelope(defn.LocalApp, &defn.Interest{NameV: name})
}

// Deliver handles one packet the engine routed to defn.LocalApp for this
// fetcher.
func (f *Fetch) Deliver(face defn.FaceID, pkt defn.Packet) {
	content, ok := pkt.(*defn.Content)
	if !ok {
		return
	}
	f.mu.Lock()
	onOpen, pending := f.onOpen[content.NameV.Key()]
	if pending {
		delete(f.onOpen, content.NameV.Key())
	}
	f.mu.Unlock()

	if pending {
		token := string(content.PayloadV)
		sidName := defn.NameFromStr(f.sessionIdentifierTag).Append(defn.Component(token))
		log.Info(f, "Session token received, subscribing to channel", "token", token)
		// §4.5 step 3: subscribe to the session channel by naming it
		// directly; the repository's answering Content on this name is
		// what installs the session FIB pin at every forwarder in between.
		f.engine.HandleEnvelope(defn.LocalApp, &defn.Interest{NameV: sidName})
		if onOpen != nil {
			onOpen(sidName)
		}
		return
	}

	log.Debug(f, "Received push Content on channel", "name", content.NameV, "payload", fmt.Sprintf("%dB", len(content.PayloadV)))
}

// Put sends a Content(sid_name, payload) over an established session.
func (f *Fetch) Put(sidName defn.Name, payload []byte) {
	f.engine.HandleEnvelope(defn.LocalApp, &defn.Content{NameV: sidName.Clone(), PayloadV: payload})
}

// Terminate ends the session from the fetcher side.
func (f *Fetch) Terminate(sidName defn.Name) {
	f.engine.HandleEnvelope(defn.LocalApp, &defn.Content{NameV: sidName.Clone(), PayloadV: []byte("terminate")})
}

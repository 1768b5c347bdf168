// Package repo implements the application-layer collaborator that sits
// behind the LocalApp face: the repository side of the session overlay
// (§4.5) and a minimal content source for ordinary Interests. It is
// explicitly outside the forwarding core, but the core's session-FIB
// pinning (fwengine's handleContent step 3) only ever fires because a
// repo or fetch client on one of these two sides drives it.
package repo

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/fwengine"
	"github.com/picn-go/picn/internal/log"
)

// Session is one session overlay conduit as tracked by the repository
// side, per §4.5.
type Session struct {
	Token    string
	SidName  defn.Name
	Face     defn.FaceID
	Created  time.Time
	Promoted time.Time
	Running  bool
}

// Store persists session state so a repository process restart doesn't
// forget which sessions are pending or running.
type Store interface {
	Put(s *Session) error
	Get(token string) (*Session, bool, error)
	Delete(token string) error
	All() ([]*Session, error)
	Close() error
}

// Repo is the repository side of the session overlay plus a trivial
// content source: an Interest that isn't session control is answered
// from an in-memory object map filled by Publish, if its exact name was
// published. The map is not persisted, and the name is not checked
// against the repository prefix.
type Repo struct {
	engine *fwengine.Engine
	store  Store

	prefix               defn.Name
	sessionInitiatorTag  string
	sessionIdentifierTag string

	objects map[string][]byte
}

func (r *Repo) String() string { return "repo" }

// New constructs a Repo bound to engine, storing session state in store.
func New(engine *fwengine.Engine, store Store, prefix defn.Name, sessionInitiatorTag, sessionIdentifierTag string) *Repo {
	return &Repo{
		engine:               engine,
		store:                store,
		prefix:               prefix,
		sessionInitiatorTag:  sessionInitiatorTag,
		sessionIdentifierTag: sessionIdentifierTag,
		objects:              make(map[string][]byte),
	}
}

// Publish registers payload as the answer for name, for this process's
// lifetime content source.
func (r *Repo) Publish(name defn.Name, payload []byte) {
	r.objects[name.Key()] = payload
}

// generateToken produces a random URL-safe session token (§4.5 step 2).
func generateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Deliver handles one packet the forwarding engine has routed to
// defn.LocalApp, i.e. one addressed to this repository.
func (r *Repo) Deliver(face defn.FaceID, pkt defn.Packet) {
	switch p := pkt.(type) {
	case *defn.Interest:
		r.handleInterest(face, p)
	case *defn.Content:
		r.handleContent(face, p)
	}
}

func (r *Repo) handleInterest(face defn.FaceID, interest *defn.Interest) {
	name := interest.NameV

	if len(name) > 0 && name[len(name)-1].String() == r.sessionInitiatorTag {
		r.handshakeStep2(face, name)
		return
	}

	if len(name) > 0 && name[0].String() == r.sessionIdentifierTag {
		r.handshakeStep3Answer(face, name)
		return
	}

	if payload, ok := r.objects[name.Key()]; ok {
		r.engine.HandleEnvelope(defn.LocalApp, &defn.Content{NameV: name.Clone(), PayloadV: payload})
		return
	}

	log.Debug(r, "No content for Interest, letting it Nack upstream", "name", name)
}

// handshakeStep2 answers the fetcher's initial session request with a
// fresh token and records the session as pending (§4.5 step 2).
func (r *Repo) handshakeStep2(face defn.FaceID, name defn.Name) {
	token, err := generateToken()
	if err != nil {
		log.Error(r, "Failed to generate session token", "err", err)
		return
	}

	sess := &Session{
		Token:   token,
		SidName: defn.NameFromStr(r.sessionIdentifierTag).Append(defn.Component(token)),
		Face:    face,
		Created: time.Now(),
	}
	if err := r.store.Put(sess); err != nil {
		log.Error(r, "Failed to persist pending session", "err", err)
		return
	}

	r.engine.HandleEnvelope(defn.LocalApp, &defn.Content{NameV: name.Clone(), PayloadV: []byte(token)})
	log.Info(r, "Issued session token", "token", token)
}

// handshakeStep3Answer completes the handshake: the fetcher's Interest
// for sid_name is itself the signal that the fetcher learned the token
// and wants the session channel opened, so the repository promotes the
// pending session and answers with the same token as Content(sid_name,
// token) -- the Content the spec's step 3 describes, and the one whose
// arrival at each forwarder installs the static session FIB pin (§4.2
// step 3, §4.5).
func (r *Repo) handshakeStep3Answer(face defn.FaceID, sidName defn.Name) {
	token := sidName[len(sidName)-1].String()
	sess, ok, err := r.store.Get(token)
	if err != nil || !ok {
		log.Warn(r, "Reconnect/open for unknown session token", "token", token)
		return
	}

	sess.Face = face
	sess.Running = true
	sess.Promoted = time.Now()
	if err := r.store.Put(sess); err != nil {
		log.Error(r, "Failed to persist running session", "err", err)
	}

	r.engine.HandleEnvelope(defn.LocalApp, &defn.Content{NameV: sidName.Clone(), PayloadV: []byte(token)})
	log.Info(r, "Session promoted to running", "token", token)
}

func (r *Repo) handleContent(face defn.FaceID, content *defn.Content) {
	name := content.NameV
	if len(name) == 0 || name[0].String() != r.sessionIdentifierTag {
		return
	}

	if string(content.PayloadV) == "terminate" {
		token := name[len(name)-1].String()
		if err := r.store.Delete(token); err != nil {
			log.Warn(r, "Failed to delete terminated session", "err", err)
		}
		r.engine.Fib().Remove(name)
		log.Info(r, "Session terminated", "token", token)
		return
	}

	// An ordinary data-transfer push: nothing repo-specific to do beyond
	// what the engine's session-forwarding rule already handled on the
	// way in.
}

// Put sends a Content(sid_name, payload) for an established session,
// the data-transfer path of §4.5.
func (r *Repo) Put(sidName defn.Name, payload []byte) {
	r.engine.HandleEnvelope(defn.LocalApp, &defn.Content{NameV: sidName.Clone(), PayloadV: payload})
}

// Terminate ends a running session from the repository side.
func (r *Repo) Terminate(token string) {
	sidName := defn.NameFromStr(r.sessionIdentifierTag).Append(defn.Component(token))
	r.engine.HandleEnvelope(defn.LocalApp, &defn.Content{NameV: sidName, PayloadV: []byte("terminate")})
}

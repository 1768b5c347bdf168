// Package fwengine implements the ICN processing state machine of spec §4:
// Interest, Content, and Nack handling against the Content Store, Pending
// Interest Table, and Forwarding Information Base, plus the aging and
// retransmission loop. It is the 35%+10% core the rest of the node (faces,
// codec, repository, management) is built around.
package fwengine

import (
	"sync"
	"time"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
	"github.com/picn-go/picn/internal/table"
)

// Sender is how the engine emits packets. Sending to defn.LocalApp means
// "deliver upward to the application/repository"; any other face means
// "forward downward through the link layer". Implementations must not
// block the caller for long, since Send is invoked while holding the
// engine's store lock.
type Sender interface {
	Send(face defn.FaceID, pkt defn.Packet)
	// AppConnected reports whether the upward (LocalApp) queue currently
	// has a consumer, per spec §4.1 step 4 ("application queue is
	// connected").
	AppConnected() bool
}

// Config holds the engine's tunable parameters, normally populated from the
// node's YAML config file (internal/config).
type Config struct {
	DeliverInterestsToApp bool
	SessionIdentifierTag  string // e.g. "sid"
	ReconnectComponent    string // literal "reconnect"

	AgeingInterval time.Duration
	PitTimeout     time.Duration
	PitRetransmits int
	CsTTL          time.Duration
}

// DefaultConfig returns the parameter values used when a node's config file
// leaves a field unset.
func DefaultConfig() Config {
	return Config{
		DeliverInterestsToApp: true,
		SessionIdentifierTag:  "sid",
		ReconnectComponent:    "reconnect",
		AgeingInterval:        1 * time.Second,
		PitTimeout:            4 * time.Second,
		PitRetransmits:        3,
		CsTTL:                 10 * time.Minute,
	}
}

// Engine owns the three stores and processes one envelope (or one aging
// tick) at a time under mu, so the aging goroutine (RunAging in aging.go) and
// the packet-handling goroutine (HandleEnvelope's caller) never observe
// each other's half-done mutations.
type Engine struct {
	mu sync.Mutex

	cfg    Config
	cs     *table.ContentStore
	pit    *table.Pit
	fib    *table.Fib
	sender Sender

	// inbox is the engine's own input queue (§5): HandleEnvelope appends
	// to it and, if no HandleEnvelope call on any goroutine is already
	// draining it, becomes the drainer. Sending to defn.LocalApp delivers
	// synchronously to the application (Sender.Send's contract), and the
	// application's reply calls back into HandleEnvelope -- on the same
	// goroutine, with mu still held by the dispatch further up the stack.
	// Dispatching that reply inline would re-lock mu and deadlock, since
	// sync.Mutex is not reentrant; queuing it instead lets the in-flight
	// dispatch finish, release mu, and pick the reply up on its next lap.
	// A HandleEnvelope call that becomes the drainer returns only once the
	// inbox is empty, so every packet it caused, directly or via the
	// application, has been dispatched. A call made while another
	// goroutine is draining returns as soon as its envelope is queued; the
	// draining goroutine dispatches it.
	inboxMu  sync.Mutex
	inbox    []envelope
	draining bool
}

type envelope struct {
	face defn.FaceID
	pkt  defn.Packet
}

func (e *Engine) String() string { return "fwengine" }

// New constructs an Engine over the given stores and sender.
func New(cfg Config, cs *table.ContentStore, pit *table.Pit, fib *table.Fib, sender Sender) *Engine {
	return &Engine{cfg: cfg, cs: cs, pit: pit, fib: fib, sender: sender}
}

// Fib exposes the FIB for management-plane mutation (static route/face
// configuration) and for the session overlay's content-side FIB pinning.
func (e *Engine) Fib() *table.Fib { return e.fib }

// Cs exposes the Content Store for management-plane seeding.
func (e *Engine) Cs() *table.ContentStore { return e.cs }

// Pit exposes the Pending Interest Table, mainly for tests and status
// reporting.
func (e *Engine) Pit() *table.Pit { return e.pit }

// HandleEnvelope dispatches one (face, packet) pair to the matching
// handler under the engine's lock. If any HandleEnvelope call is already
// draining the inbox -- further down this goroutine's stack (an
// application reply arriving via Sender.Send(LocalApp, ...) ->
// App.Deliver -> this call) or on another goroutine -- the envelope is
// queued instead of dispatched inline, and this call returns at once; the
// draining call picks it up once it finishes the envelope it is currently
// on.
func (e *Engine) HandleEnvelope(face defn.FaceID, pkt defn.Packet) {
	e.inboxMu.Lock()
	e.inbox = append(e.inbox, envelope{face, pkt})
	if e.draining {
		e.inboxMu.Unlock()
		return
	}
	e.draining = true
	e.inboxMu.Unlock()

	for {
		e.inboxMu.Lock()
		if len(e.inbox) == 0 {
			e.draining = false
			e.inboxMu.Unlock()
			return
		}
		next := e.inbox[0]
		e.inbox = e.inbox[1:]
		e.inboxMu.Unlock()

		e.mu.Lock()
		e.dispatch(next.face, next.pkt)
		e.mu.Unlock()
	}
}

func (e *Engine) dispatch(face defn.FaceID, pkt defn.Packet) {
	switch p := pkt.(type) {
	case *defn.Interest:
		e.handleInterest(face, p)
	case *defn.Content:
		e.handleContent(face, p)
	case *defn.Nack:
		e.handleNack(face, p)
	default:
		log.Warn(e, "Dropping envelope of unknown packet kind", "face", face)
	}
}

// isSessionControl reports whether name is a session-overlay control
// packet per §6.5: its first component is the session identifier tag and
// the name contains the literal "reconnect" component.
func (e *Engine) isSessionControl(name defn.Name) bool {
	if len(name) == 0 || name[0].String() != e.cfg.SessionIdentifierTag {
		return false
	}
	for _, c := range name {
		if c.String() == e.cfg.ReconnectComponent {
			return true
		}
	}
	return false
}

func (e *Engine) handleInterest(face defn.FaceID, interest *defn.Interest) {
	name := interest.NameV

	// 1. CS hit.
	if payload, ok := e.cs.Find(name); ok {
		log.Debug(e, "CS hit", "name", name, "face", face)
		e.sender.Send(face, &defn.Content{NameV: name.Clone(), PayloadV: payload})
		return
	}

	// 2. Session-control packet.
	if e.isSessionControl(name) {
		e.handleReconnect(face, interest)
		return
	}

	// 3. PIT hit: aggregate.
	if entry, ok := e.pit.Get(name); ok {
		entry.Timestamp = time.Now()
		entry.AddInFace(face, defn.FromLocal(face))
		entry.Interest = interest
		log.Debug(e, "Interest aggregated", "name", name, "face", face)
		return
	}

	// 4. Delivery to application.
	if e.cfg.DeliverInterestsToApp && e.sender.AppConnected() {
		entry := table.NewEntry(name)
		entry.AddInFace(face, defn.FromLocal(face))
		entry.Interest = interest
		e.pit.Insert(entry)
		e.sender.Send(defn.LocalApp, interest)
		log.Debug(e, "Interest delivered to application", "name", name)
		return
	}

	// 5. FIB lookup, excluding the face the Interest arrived on.
	excl := map[defn.FaceID]bool{face: true}
	if fe, ok := e.fib.Lookup(name, table.LookupOptions{ExcludeUpstream: excl}); ok {
		entry := table.NewEntry(name)
		entry.AddInFace(face, defn.FromLocal(face))
		entry.Interest = interest
		ident := fe.Identity()
		entry.CurrentFib = &ident
		forwarded := 0
		for _, up := range fe.Upstreams {
			if entry.NackedFaces[up] || up == face {
				continue
			}
			e.sender.Send(up, interest)
			forwarded++
		}
		entry.OutstandingForwards = forwarded
		e.pit.Insert(entry)
		log.Debug(e, "Interest forwarded via FIB", "name", name, "upstreams", fe.Upstreams)
		return
	}

	// 6. Miss.
	log.Debug(e, "No route for Interest", "name", name)
	e.sender.Send(face, &defn.Nack{NameV: name.Clone(), Reason: defn.NackNoRoute, OriginatingInterest: interest})
}

func (e *Engine) handleContent(face defn.FaceID, content *defn.Content) {
	name := content.NameV

	entry, ok := e.pit.Get(name)
	if !ok {
		log.Debug(e, "Dropping Content with no matching PIT entry", "name", name)
		return
	}

	// 3. First sighting of a session-tagged Content pins a static,
	// session-flagged FIB entry toward the face it just arrived on and
	// marks the PIT entry as a session (exempt from aging, §4.2, §4.5).
	if e.isSessionName(name) && !entry.IsSession {
		entry.IsSession = true
		if _, exists := e.fib.Get(name); !exists {
			e.fib.Insert(name, []defn.FaceID{face}, true, true)
		}
		log.Info(e, "Installed session FIB pin", "name", name, "face", face)
	}

	// 2. Forward to every recorded downstream except the face the
	// Content just arrived on, so a session's two endpoints exchange
	// data without either ever seeing its own push echoed back.
	for _, in := range entry.InFaces {
		if in == face {
			continue
		}
		e.sender.Send(in, content)
	}

	// 4. Remove the PIT entry, unless it is a session entry.
	if !entry.IsSession {
		e.pit.Remove(name)
	}

	// 5. Insert into CS.
	e.cs.Insert(name, content.PayloadV, false)
}

// isSessionName reports whether name begins with the session identifier
// tag, i.e. names a session channel (sid_name) rather than ordinary
// content.
func (e *Engine) isSessionName(name defn.Name) bool {
	return len(name) > 0 && name[0].String() == e.cfg.SessionIdentifierTag
}

func (e *Engine) handleNack(face defn.FaceID, nack *defn.Nack) {
	name := nack.NameV

	entry, ok := e.pit.Get(name)
	if !ok {
		log.Debug(e, "Dropping Nack with no matching PIT entry", "name", name)
		return
	}

	entry.NackedFaces[face] = true

	if entry.OutstandingForwards > 1 {
		entry.OutstandingForwards--
		log.Debug(e, "Nack suppressed, other upstreams still outstanding", "name", name)
		return
	}
	entry.OutstandingForwards = 0

	if entry.CurrentFib != nil && !entry.HasTried(*entry.CurrentFib) {
		entry.FibsTried = append(entry.FibsTried, *entry.CurrentFib)
	}

	excl := make(map[defn.FaceID]bool, len(entry.InFaces))
	for _, f := range entry.InFaces {
		excl[f] = true
	}
	newEntry, found := e.fib.Lookup(name, table.LookupOptions{
		ExcludeUpstream: excl,
		ExcludeTried:    entry.FibsTried,
	})

	if found {
		var toForward []defn.FaceID
		for _, up := range newEntry.Upstreams {
			if !entry.NackedFaces[up] {
				toForward = append(toForward, up)
			}
		}
		if len(toForward) > 0 {
			ident := newEntry.Identity()
			entry.CurrentFib = &ident
			for _, up := range toForward {
				e.sender.Send(up, entry.Interest)
				entry.OutstandingForwards++
			}
			log.Debug(e, "Nack fallback forwarded", "name", name, "upstreams", toForward)
			return
		}
	}

	// No fallback available: propagate per §4.3 step 6.
	e.propagateNackNoFallback(entry, nack.Reason)
}

func (e *Engine) propagateNackNoFallback(entry *table.PitEntry, reason defn.NackReason) {
	name := entry.Name

	localFaces := make(map[defn.FaceID]bool)
	var networkFaces []defn.FaceID
	for i, f := range entry.InFaces {
		if entry.Local[i] {
			localFaces[f] = true
		} else {
			networkFaces = append(networkFaces, f)
		}
	}

	sendNack := func(f defn.FaceID) {
		e.sender.Send(f, &defn.Nack{NameV: name.Clone(), Reason: reason, OriginatingInterest: entry.Interest})
	}

	switch {
	case len(networkFaces) == 0:
		// Pure local-only (or empty) entry: serve and remove.
		for f := range localFaces {
			sendNack(f)
		}
		e.pit.Remove(name)
	case len(localFaces) == 0:
		// Pure network-only entry: serve and remove.
		for _, f := range networkFaces {
			sendNack(f)
		}
		e.pit.Remove(name)
	default:
		// Mixed: serve local downstreams now, keep the entry alive (minus
		// those faces) so network retries can still be answered later.
		for f := range localFaces {
			sendNack(f)
		}
		entry.RemoveInFaces(localFaces)
	}
}

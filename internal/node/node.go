// Package node wires the independent pieces -- face table, forwarding
// engine, and the application layer behind LocalApp -- into the single
// fwengine.Sender the engine needs, the way the forwarder's LinkService
// sits between its faces and its forwarding threads.
package node

import (
	"github.com/picn-go/picn/internal/codec"
	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/face"
	"github.com/picn-go/picn/internal/log"
)

// AppHandler is implemented by whatever sits behind defn.LocalApp --
// internal/repo's Repo and Fetch both satisfy it.
type AppHandler interface {
	Deliver(face defn.FaceID, pkt defn.Packet)
}

// Sender implements fwengine.Sender over a face.Table plus an optional
// application handler. A nil App means no local application is attached
// (AppConnected reports false and the engine falls through to FIB
// forwarding, per §4.1 step 4).
type Sender struct {
	Faces *face.Table
	App   AppHandler
}

func (s *Sender) String() string { return "sender" }

// Send implements fwengine.Sender. Delivery to the application is a plain
// synchronous call: App.Deliver (Repo/Fetch) may call straight back into
// the engine that invoked Send, but fwengine.Engine.HandleEnvelope queues
// such reentrant calls onto its own inbox rather than dispatching them on
// this same stack, so the call chain here never re-locks a mutex it's
// already holding.
func (s *Sender) Send(faceID defn.FaceID, pkt defn.Packet) {
	if defn.FromLocal(faceID) {
		if s.App != nil {
			s.App.Deliver(faceID, pkt)
		}
		return
	}

	raw := codec.Encode(pkt)
	if raw == nil {
		log.Warn(s, "Refusing to encode packet of unknown kind", "face", faceID)
		return
	}
	s.Faces.Send(faceID, raw)
}

// AppConnected implements fwengine.Sender.
func (s *Sender) AppConnected() bool {
	return s.App != nil
}

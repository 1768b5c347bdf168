package fwengine

import (
	"strconv"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
	"github.com/picn-go/picn/internal/table"
)

// handleReconnect implements the forwarder-side half of §4.5's reconnect
// protocol: a forwarder sees
// /<session_identifier_tag>/<token>/reconnect/<max_hops> arrive on some
// face and reshapes its own session routing state, then relays a
// decremented copy toward wherever it used to think the session lived. A
// well-formed reconnect Interest never produces a reply; the Interest is
// pure routing-state signaling. One whose last two components are not
// "reconnect" and a decimal hop count is answered with Nack(NoContent).
func (e *Engine) handleReconnect(face defn.FaceID, interest *defn.Interest) {
	name := interest.NameV
	if len(name) < 3 {
		log.Warn(e, "Malformed reconnect Interest", "name", name)
		return
	}

	last := name[len(name)-1]
	secondLast := name[len(name)-2]
	if secondLast.String() != e.cfg.ReconnectComponent {
		e.sender.Send(face, &defn.Nack{NameV: name.Clone(), Reason: defn.NackNoContent, OriginatingInterest: interest})
		return
	}

	maxHops, err := strconv.Atoi(last.String())
	if err != nil {
		e.sender.Send(face, &defn.Nack{NameV: name.Clone(), Reason: defn.NackNoContent, OriginatingInterest: interest})
		return
	}

	// 1. Decrement the hop budget; drop once exhausted.
	maxHops--
	if maxHops <= 0 {
		log.Debug(e, "Reconnect Interest exhausted its hop budget", "name", name)
		return
	}
	sidName := name[:len(name)-2]

	// Capture the session's previously-known upstream before we overwrite
	// it, so we can relay the reconnect further along the old path.
	var prevFace defn.FaceID
	havePrev := false
	if old, ok := e.fib.Get(sidName); ok && len(old.Upstreams) > 0 {
		prevFace, havePrev = old.Upstreams[0], true
	}

	// 2. Replace the session FIB entry with one pointing at the incoming face.
	e.fib.Insert(sidName, []defn.FaceID{face}, true, true)

	// 3. Extend (or create) the session PIT entry with the incoming face.
	entry, ok := e.pit.Get(sidName)
	if !ok {
		entry = table.NewEntry(sidName)
		entry.IsSession = true
		e.pit.Insert(entry)
	}
	entry.AddInFace(face, defn.FromLocal(face))

	// 4. Forward the decremented reconnect Interest toward the old path.
	if havePrev && prevFace != face {
		forwardName := sidName.Append(
			defn.Component(e.cfg.ReconnectComponent),
			defn.Component(strconv.Itoa(maxHops)),
		)
		e.sender.Send(prevFace, &defn.Interest{NameV: forwardName})
	}

	log.Info(e, "Processed session reconnect", "sid", sidName, "face", face, "maxHops", maxHops)
}

package face

import "github.com/picn-go/picn/internal/defn"

// ChanFace is an in-process face backed by a Go channel, used for the
// local application face (defn.LocalApp) and for tests that want to
// observe exactly what the engine sends without a real transport.
type ChanFace struct {
	baseFace
	out chan []byte
}

// NewChanFace constructs a ChanFace with the given outbound buffer size.
func NewChanFace(id defn.FaceID, remote string, local bool, buffer int) *ChanFace {
	f := &ChanFace{out: make(chan []byte, buffer)}
	f.id = id
	f.remote = remote
	f.local = local
	f.running = true
	return f
}

func (f *ChanFace) String() string {
	return "chan-face (faceid=" + f.remote + ")"
}

// Send enqueues raw, dropping it if the outbound buffer is full (§6.2
// "best-effort, non-blocking").
func (f *ChanFace) Send(raw []byte) {
	if !f.IsRunning() {
		return
	}
	select {
	case f.out <- raw:
		f.addOut(len(raw))
	default:
	}
}

// Out exposes the outbound channel for a test or local-app consumer to
// drain.
func (f *ChanFace) Out() <-chan []byte { return f.out }

// Deliver simulates an inbound frame arriving on this face, counting it
// against NInBytes.
func (f *ChanFace) Deliver(raw []byte) {
	f.addIn(len(raw))
}

func (f *ChanFace) Close() {
	f.setRunning(false)
}

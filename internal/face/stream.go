package face

import (
	"net"

	"github.com/picn-go/picn/internal/codec"
	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
)

// StreamFace wraps any net.Conn that needs length-prefixed framing: TCP
// and Unix-domain stream sockets both use it, mirroring how the
// forwarder's TCP and Unix-stream transports differ only in which
// net.Conn they hold (fw/face/unix-stream-transport.go).
type StreamFace struct {
	baseFace
	conn net.Conn
	recv ReceiveFunc
	kind string
}

// newStreamFace wraps conn as a Face. kind is used only in String() to
// distinguish "tcp-face" from "unix-face" in logs.
func newStreamFace(id defn.FaceID, conn net.Conn, local bool, kind string, recv ReceiveFunc) *StreamFace {
	f := &StreamFace{conn: conn, recv: recv}
	f.id = id
	f.remote = conn.RemoteAddr().String()
	f.local = local
	f.running = true
	f.kind = kind
	return f
}

func (f *StreamFace) String() string {
	return f.kind + "-face (faceid=" + f.remote + ")"
}

func (f *StreamFace) Send(raw []byte) {
	if !f.IsRunning() {
		return
	}
	if err := codec.WriteFrame(f.conn, raw); err != nil {
		log.Warn(f, "Unable to send on socket, face DOWN", "err", err)
		f.Close()
		return
	}
	f.addOut(len(raw))
}

// RunReceive reads length-prefixed frames until the connection closes or
// errors, handing each to recv. Run it on its own goroutine.
func (f *StreamFace) RunReceive() {
	defer f.Close()
	for {
		raw, err := codec.ReadFrame(f.conn)
		if err != nil {
			if f.IsRunning() {
				log.Info(f, "Connection closed, face DOWN", "err", err)
			}
			return
		}
		f.addIn(len(raw))
		f.recv(f.id, raw)
	}
}

func (f *StreamFace) Close() {
	if f.IsRunning() {
		f.setRunning(false)
		f.conn.Close()
	}
}

package face

import (
	"net/http"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
	webtransport "github.com/quic-go/webtransport-go"
)

// WebTransportFace communicates over a QUIC/WebTransport session, one
// packet per unreliable datagram. Grounded on fw/face/http3-transport.go.
type WebTransportFace struct {
	baseFace
	sess *webtransport.Session
	recv ReceiveFunc
}

// ListenWebTransport serves WebTransport session upgrades on addr/path,
// registering a new face in t for each accepted session.
func ListenWebTransport(t *Table, addr, path string, recv ReceiveFunc, stop <-chan struct{}) error {
	var wts webtransport.Server
	wts.H3.Addr = addr

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		sess, err := wts.Upgrade(w, r)
		if err != nil {
			log.Warn(t, "WebTransport upgrade failed", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		t.Add(func(id defn.FaceID) Face {
			wf := &WebTransportFace{sess: sess, recv: recv}
			wf.id = id
			wf.remote = sess.RemoteAddr().String()
			wf.running = true
			go wf.runReceive()
			return wf
		})
	})

	wts.H3.Handler = mux

	go func() {
		<-stop
		wts.Close()
	}()
	go func() {
		if err := wts.ListenAndServe(); err != nil {
			log.Warn(t, "WebTransport listener stopped", "err", err)
		}
	}()
	return nil
}

func (f *WebTransportFace) String() string {
	return "web-transport-face (faceid=" + f.remote + ")"
}

func (f *WebTransportFace) Send(raw []byte) {
	if !f.IsRunning() {
		return
	}
	if err := f.sess.SendDatagram(raw); err != nil {
		log.Warn(f, "Unable to send on session, face DOWN", "err", err)
		f.Close()
		return
	}
	f.addOut(len(raw))
}

func (f *WebTransportFace) runReceive() {
	defer f.Close()
	for {
		msg, err := f.sess.ReceiveDatagram(f.sess.Context())
		if err != nil {
			if f.IsRunning() {
				log.Warn(f, "Unable to read from session, face DOWN", "err", err)
			}
			return
		}
		f.addIn(len(msg))
		f.recv(f.id, msg)
	}
}

func (f *WebTransportFace) Close() {
	if f.IsRunning() {
		f.setRunning(false)
		f.sess.CloseWithError(0, "")
	}
}

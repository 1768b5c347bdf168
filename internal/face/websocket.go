package face

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/picn-go/picn/internal/codec"
	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
)

// WebSocketFace communicates with browser/JS applications over a
// WebSocket, each binary message carrying exactly one encoded packet.
// Grounded on fw/face/web-socket-transport.go.
type WebSocketFace struct {
	baseFace
	conn *websocket.Conn
	recv ReceiveFunc
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  codec.MaxFrameSize,
	WriteBufferSize: codec.MaxFrameSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ListenWebSocket serves WebSocket upgrades on addr/path, registering a
// new face in t for each accepted connection.
func ListenWebSocket(t *Table, addr, path string, recv ReceiveFunc, stop <-chan struct{}) error {
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn(t, "WebSocket upgrade failed", "err", err)
			return
		}
		t.Add(func(id defn.FaceID) Face {
			wf := &WebSocketFace{conn: conn, recv: recv}
			wf.id = id
			wf.remote = conn.RemoteAddr().String()
			wf.running = true
			go wf.runReceive()
			return wf
		})
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-stop
		srv.Close()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(t, "WebSocket listener stopped", "err", err)
		}
	}()
	return nil
}

func (f *WebSocketFace) String() string {
	return "web-socket-face (faceid=" + f.remote + ")"
}

func (f *WebSocketFace) Send(raw []byte) {
	if !f.IsRunning() {
		return
	}
	if err := f.conn.WriteMessage(websocket.BinaryMessage, raw); err != nil {
		log.Warn(f, "Unable to send on socket, face DOWN", "err", err)
		f.Close()
		return
	}
	f.addOut(len(raw))
}

func (f *WebSocketFace) runReceive() {
	defer f.Close()
	for {
		mt, msg, err := f.conn.ReadMessage()
		if err != nil {
			if f.IsRunning() {
				log.Info(f, "WebSocket closed, face DOWN", "err", err)
			}
			return
		}
		if mt != websocket.BinaryMessage {
			log.Warn(f, "Ignored non-binary WebSocket message")
			continue
		}
		f.addIn(len(msg))
		f.recv(f.id, msg)
	}
}

func (f *WebSocketFace) Close() {
	if f.IsRunning() {
		f.setRunning(false)
		f.conn.Close()
	}
}

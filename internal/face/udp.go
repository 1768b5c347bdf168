package face

import (
	"net"

	"github.com/picn-go/picn/internal/codec"
	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
)

// UDPFace is a unicast UDP transport. Unlike the stream faces, each
// datagram carries exactly one encoded packet -- no length prefix is
// needed, since UDP already preserves message boundaries -- mirroring
// fw/face/unicast-udp-transport.go.
type UDPFace struct {
	baseFace
	conn *net.UDPConn
	recv ReceiveFunc
}

// DialUDP connects to addr and registers the resulting face in t.
func DialUDP(t *Table, addr string, recv ReceiveFunc) (Face, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	f := t.Add(func(id defn.FaceID) Face {
		uf := &UDPFace{conn: conn, recv: recv}
		uf.id = id
		uf.remote = addr
		uf.running = true
		go uf.runReceive()
		return uf
	})
	return f, nil
}

func (f *UDPFace) String() string {
	return "udp-face (faceid=" + f.remote + ")"
}

func (f *UDPFace) Send(raw []byte) {
	if !f.IsRunning() {
		return
	}
	if len(raw) > codec.MaxFrameSize {
		log.Warn(f, "Attempted to send datagram larger than the frame limit")
		return
	}
	if _, err := f.conn.Write(raw); err != nil {
		log.Warn(f, "Unable to send on socket, face DOWN", "err", err)
		f.Close()
		return
	}
	f.addOut(len(raw))
}

func (f *UDPFace) runReceive() {
	defer f.Close()
	buf := make([]byte, codec.MaxFrameSize)
	for {
		n, err := f.conn.Read(buf)
		if err != nil {
			if f.IsRunning() {
				log.Warn(f, "Unable to read from socket, face DOWN", "err", err)
			}
			return
		}
		raw := append([]byte(nil), buf[:n]...)
		f.addIn(n)
		f.recv(f.id, raw)
	}
}

func (f *UDPFace) Close() {
	if f.IsRunning() {
		f.setRunning(false)
		f.conn.Close()
	}
}

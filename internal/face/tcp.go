package face

import (
	"net"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
)

// DialTCP connects to addr and registers the resulting face in t, the
// active-open path used by the management "newface" verb (§6.4).
func DialTCP(t *Table, addr string, recv ReceiveFunc) (Face, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	f := t.Add(func(id defn.FaceID) Face {
		sf := newStreamFace(id, conn, false, "tcp", recv)
		go sf.RunReceive()
		return sf
	})
	return f, nil
}

// ListenTCP accepts inbound TCP connections on addr, registering a new
// face in t for each, until stop is closed.
func ListenTCP(t *Table, addr string, recv ReceiveFunc, stop <-chan struct{}) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-stop
		ln.Close()
	}()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-stop:
					return
				default:
					log.Warn(t, "TCP listener accept failed", "err", err)
					return
				}
			}
			t.Add(func(id defn.FaceID) Face {
				sf := newStreamFace(id, conn, false, "tcp", recv)
				go sf.RunReceive()
				return sf
			})
		}
	}()
	return nil
}

package face

import (
	"net"
	"os"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
	"golang.org/x/sys/unix"
)

// ListenUnix accepts local application connections on a Unix-domain
// stream socket at path. Each connection becomes a face of its own,
// marked Local, under a freshly allocated FaceID rather than
// defn.LocalApp. Any stale socket file left behind by a previous run is
// removed first.
func ListenUnix(t *Table, path string, recv ReceiveFunc, stop <-chan struct{}) error {
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	go func() {
		<-stop
		ln.Close()
		os.Remove(path)
	}()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-stop:
					return
				default:
					return
				}
			}
			logPeerCredentials(conn)
			t.Add(func(id defn.FaceID) Face {
				sf := newStreamFace(id, conn, true, "unix", recv)
				go sf.RunReceive()
				return sf
			})
		}
	}()
	return nil
}

// logPeerCredentials reads the connecting process's pid/uid/gid off the
// Unix-domain socket via SO_PEERCRED, the same local-app authentication
// signal the forwarder's unix-stream transport uses to decide whether a
// connecting application is trusted (fw/face/unix-stream-transport.go).
// This node does not gate on identity, only logs it.
func logPeerCredentials(conn net.Conn) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return
	}
	var cred *unix.Ucred
	var credErr error
	err = raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil || credErr != nil {
		return
	}
	log.Debug(unixFaceLog{}, "Accepted local-app connection", "pid", cred.Pid, "uid", cred.Uid, "gid", cred.Gid)
}

type unixFaceLog struct{}

func (unixFaceLog) String() string { return "unix-face" }

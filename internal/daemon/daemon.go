// Package daemon assembles one running node: config, stores, engine,
// faces, management surface, and (optionally) the repository
// application. It plays the role fw/cmd/yanfd.go's YaNFD type plays for
// the forwarder: Start brings every stage up, Stop tears them down in
// reverse order (§5 "stop accepting on all faces, drain queues
// best-effort, cancel the aging timer").
package daemon

import (
	"github.com/picn-go/picn/internal/codec"
	"github.com/picn-go/picn/internal/config"
	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/errs"
	"github.com/picn-go/picn/internal/face"
	"github.com/picn-go/picn/internal/fwengine"
	"github.com/picn-go/picn/internal/log"
	"github.com/picn-go/picn/internal/mgmt"
	"github.com/picn-go/picn/internal/node"
	"github.com/picn-go/picn/internal/repo"
	"github.com/picn-go/picn/internal/table"
)

// Daemon is one running picnd node.
type Daemon struct {
	cfg     config.Config
	engine  *fwengine.Engine
	faces   *face.Table
	sender  *node.Sender
	mgmtSrv *mgmt.Server
	repo    *repo.Repo
	store   repo.Store

	stop chan struct{}
}

func (d *Daemon) String() string { return "picnd" }

// New assembles a Daemon from cfg without starting anything.
func New(cfg config.Config) (*Daemon, error) {
	log.SetLevel(mustLevel(cfg.Node.LogLevel))

	var csBackend table.CsBackend
	switch cfg.Node.CsBackend {
	case "", "memory":
		csBackend = table.NewMemoryBackend()
	case "badger":
		b, err := table.NewBadgerBackend(cfg.Node.CsBadgerPath)
		if err != nil {
			return nil, err
		}
		csBackend = b
	default:
		return nil, errs.ErrNotSupported{Item: "cs_backend: " + cfg.Node.CsBackend}
	}

	cs := table.NewContentStore(cfg.Node.CsCapacity, csBackend)
	pit := table.NewPit()
	fib := table.NewFib()

	faces := face.NewTable(cfg.Node.FaceTableCapacity)
	sender := &node.Sender{Faces: faces}

	engCfg := fwengine.Config{
		DeliverInterestsToApp: cfg.Node.DeliverInterestsToApp,
		SessionIdentifierTag:  cfg.Node.SessionIdentifierTag,
		ReconnectComponent:    cfg.Node.ReconnectComponent,
		AgeingInterval:        cfg.Node.AgeingInterval,
		PitTimeout:            cfg.Node.PitTimeout,
		PitRetransmits:        cfg.Node.PitRetransmits,
		CsTTL:                 cfg.Node.CsTTL,
	}
	engine := fwengine.New(engCfg, cs, pit, fib, sender)

	d := &Daemon{
		cfg:    cfg,
		engine: engine,
		faces:  faces,
		sender: sender,
		stop:   make(chan struct{}),
	}

	if cfg.Repo.Enabled {
		var store repo.Store
		var err error
		if cfg.Repo.SqlitePath != "" {
			store, err = repo.NewSQLiteStore(cfg.Repo.SqlitePath)
		} else {
			store = repo.NewMemoryStore()
		}
		if err != nil {
			return nil, err
		}
		d.store = store
		d.repo = repo.New(engine, store, defn.NameFromStr(cfg.Repo.Prefix),
			cfg.Node.SessionInitiatorTag, cfg.Node.SessionIdentifierTag)
		sender.App = d.repo
	}

	d.mgmtSrv = mgmt.NewServer(cfg.Mgmt.Listen, engine, faces, d.shutdownAsync)

	return d, nil
}

func mustLevel(s string) log.Level {
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.LevelInfo
	}
	return lvl
}

// Start brings up the face listeners, the aging task, and the
// management surface. It returns once listeners are bound; serving
// continues on background goroutines until Stop is called.
func (d *Daemon) Start() error {
	recv := func(faceID defn.FaceID, raw []byte) {
		dispatchIncoming(d.engine, faceID, raw)
	}

	if d.cfg.Faces.UnixSocket != "" {
		if err := face.ListenUnix(d.faces, d.cfg.Faces.UnixSocket, recv, d.stop); err != nil {
			return err
		}
	}
	if d.cfg.Faces.TCPListen != "" {
		if err := face.ListenTCP(d.faces, d.cfg.Faces.TCPListen, recv, d.stop); err != nil {
			return err
		}
	}
	if d.cfg.Faces.WebSocket != "" {
		if err := face.ListenWebSocket(d.faces, d.cfg.Faces.WebSocket, "/", recv, d.stop); err != nil {
			return err
		}
	}
	if d.cfg.Faces.WebTransport != "" {
		if err := face.ListenWebTransport(d.faces, d.cfg.Faces.WebTransport, "/", recv, d.stop); err != nil {
			return err
		}
	}

	d.engine.RunAging(d.stop)

	go func() {
		if err := d.mgmtSrv.ListenAndServe(); err != nil {
			log.Error(d, "Management surface stopped", "err", err)
		}
	}()

	log.Info(d, "picnd started")
	return nil
}

// Stop tears the node down: management and face listeners first, then
// the aging timer, then any persistent stores.
func (d *Daemon) Stop() {
	close(d.stop)
	d.mgmtSrv.Close()
	for _, f := range d.faces.Faces() {
		f.Close()
	}
	if d.store != nil {
		d.store.Close()
	}
	log.Info(d, "picnd stopped")
}

func (d *Daemon) shutdownAsync() {
	d.Stop()
}

// dispatchIncoming decodes a raw frame and routes it into the engine. It
// is a copy of internal/mgmt's identically-named helper, which serves the
// management-created faces.
func dispatchIncoming(engine *fwengine.Engine, faceID defn.FaceID, raw []byte) {
	pkt := codec.Decode(raw)
	if pkt == nil {
		codec.LogDrop("decode failed", raw)
		return
	}
	engine.HandleEnvelope(faceID, pkt)
}

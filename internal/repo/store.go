package repo

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/picn-go/picn/internal/defn"
)

// memoryStore is the non-durable Store, used by tests and by nodes that
// don't care about surviving a restart.
type memoryStore struct {
	sessions map[string]*Session
}

// NewMemoryStore constructs a non-durable session store.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]*Session)}
}

func (m *memoryStore) Put(s *Session) error {
	cp := *s
	m.sessions[s.Token] = &cp
	return nil
}

func (m *memoryStore) Get(token string) (*Session, bool, error) {
	s, ok := m.sessions[token]
	return s, ok, nil
}

func (m *memoryStore) Delete(token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *memoryStore) All() ([]*Session, error) {
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryStore) Close() error { return nil }

// sqliteStore persists pending and running sessions across restarts, so
// a repository that crashes mid-handshake doesn't silently forget a
// session a fetcher still believes is alive.
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if absent) a sqlite-backed session
// store at path.
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	sid_name   TEXT NOT NULL,
	face       INTEGER NOT NULL,
	created    INTEGER NOT NULL,
	promoted   INTEGER NOT NULL,
	running    INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Put(sess *Session) error {
	_, err := s.db.Exec(`
INSERT INTO sessions (token, sid_name, face, created, promoted, running)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(token) DO UPDATE SET
	sid_name = excluded.sid_name,
	face = excluded.face,
	promoted = excluded.promoted,
	running = excluded.running`,
		sess.Token, sess.SidName.String(), uint64(sess.Face),
		sess.Created.UnixNano(), sess.Promoted.UnixNano(), sess.Running)
	return err
}

func (s *sqliteStore) Get(token string) (*Session, bool, error) {
	row := s.db.QueryRow(`SELECT sid_name, face, created, promoted, running FROM sessions WHERE token = ?`, token)

	var sidName string
	var face uint64
	var created, promoted int64
	var running bool
	if err := row.Scan(&sidName, &face, &created, &promoted, &running); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &Session{
		Token:    token,
		SidName:  defn.NameFromStr(sidName),
		Face:     defn.FaceID(face),
		Created:  time.Unix(0, created),
		Promoted: time.Unix(0, promoted),
		Running:  running,
	}, true, nil
}

func (s *sqliteStore) Delete(token string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func (s *sqliteStore) All() ([]*Session, error) {
	rows, err := s.db.Query(`SELECT token, sid_name, face, created, promoted, running FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		var token, sidName string
		var face uint64
		var created, promoted int64
		var running bool
		if err := rows.Scan(&token, &sidName, &face, &created, &promoted, &running); err != nil {
			return nil, err
		}
		out = append(out, &Session{
			Token:    token,
			SidName:  defn.NameFromStr(sidName),
			Face:     defn.FaceID(face),
			Created:  time.Unix(0, created),
			Promoted: time.Unix(0, promoted),
			Running:  running,
		})
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

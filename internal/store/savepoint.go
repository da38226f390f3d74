package store

import (
	"database/sql"
	"fmt"
	"regexp"
)

var savepointName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Savepoint is a named unit of work on a Conn.
//
// Callers defer Rollback immediately after creation and call Commit on
// success; Rollback after Commit is a no-op. Savepoints nest: releasing an
// inner savepoint only becomes durable when the outermost one is released,
// and rolling back an outer savepoint discards released inner work.
type Savepoint struct {
	conn execer
	name string
	done bool
}

// NewSavepoint begins a savepoint on conn.
func NewSavepoint(conn execer, name string) (*Savepoint, error) {
	if !savepointName.MatchString(name) {
		return nil, fmt.Errorf("invalid savepoint name %q", name)
	}
	if _, err := conn.Exec(`SAVEPOINT "` + name + `"`); err != nil {
		return nil, fmt.Errorf("failed to begin savepoint %s: %w", name, err)
	}
	return &Savepoint{conn: conn, name: name}, nil
}

// Name returns the savepoint name.
func (s *Savepoint) Name() string {
	return s.name
}

// Commit releases the savepoint, keeping its work.
func (s *Savepoint) Commit() error {
	if s.done {
		return fmt.Errorf("savepoint %s already completed", s.name)
	}
	if _, err := s.conn.Exec(`RELEASE "` + s.name + `"`); err != nil {
		return fmt.Errorf("failed to release savepoint %s: %w", s.name, err)
	}
	s.done = true
	return nil
}

// Rollback undoes all work since the savepoint began and releases it.
// It does nothing if the savepoint was already committed or rolled back.
func (s *Savepoint) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	if _, err := s.conn.Exec(`ROLLBACK TO "` + s.name + `"`); err != nil {
		return fmt.Errorf("failed to roll back savepoint %s: %w", s.name, err)
	}
	if _, err := s.conn.Exec(`RELEASE "` + s.name + `"`); err != nil {
		return fmt.Errorf("failed to release savepoint %s: %w", s.name, err)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/maloquacious/pkgindex/internal/store"
	_ "modernc.org/sqlite"
)

// DefaultBusyTimeout is how long a connection waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// Options tune a connection.
type Options struct {
	// BusyTimeout bounds waits on locks held by other connections.
	// Zero selects DefaultBusyTimeout.
	BusyTimeout time.Duration
}

// Conn implements store.Conn using modernc.org/sqlite.
// It pins exactly one underlying connection so that savepoints and
// pragmas apply to every statement issued through it.
type Conn struct {
	target      string
	disposition store.Disposition
	db          *sql.DB
	conn        *sql.Conn
}

var _ store.Conn = (*Conn)(nil)

// Open opens target with safe defaults.
//
// ReadOnly and ReadWrite require an existing file when target is a path.
// A path is opened through a file: URI built by pathURI. With store.URI
// the target must be a "file:" URI and is handed to SQLite
// unchanged, so URI parameters such as immutable=1 take effect.
func Open(target string, disposition store.Disposition, flags store.OpenFlags, opts Options) (*Conn, error) {
	dsn := target
	if flags&store.URI != 0 {
		if !strings.HasPrefix(target, "file:") {
			return nil, fmt.Errorf("URI target must start with file: %q", target)
		}
	} else {
		if disposition != store.Create {
			if err := store.MustExist(target); err != nil {
				return nil, err
			}
		}
		dsn = pathURI(target, disposition)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}

	// Apply safe defaults
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busy.Milliseconds()),
		"PRAGMA foreign_keys=ON",
	}
	if disposition == store.ReadOnly {
		pragmas = append(pragmas, "PRAGMA query_only=ON")
	}

	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(context.Background(), pragma); err != nil {
			conn.Close()
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	return &Conn{
		target:      target,
		disposition: disposition,
		db:          db,
		conn:        conn,
	}, nil
}

// pathURI addresses a plain filesystem path as a file: URI so that no
// character of the path is read as DSN syntax. The mode parameter keeps
// SQLite from creating a missing file unless disposition is Create.
func pathURI(path string, disposition store.Disposition) string {
	var b strings.Builder
	b.WriteString("file:")
	p := filepath.ToSlash(path)
	if strings.HasPrefix(p, "/") {
		// An empty authority keeps a leading "//" part of the path.
		b.WriteString("//")
	}
	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '%':
			b.WriteString("%25")
		case '?':
			b.WriteString("%3f")
		case '#':
			b.WriteString("%23")
		default:
			b.WriteByte(c)
		}
	}
	switch disposition {
	case store.ReadOnly:
		b.WriteString("?mode=ro")
	case store.ReadWrite:
		b.WriteString("?mode=rw")
	default:
		b.WriteString("?mode=rwc")
	}
	return b.String()
}

// Target returns the path or URI the connection was opened with.
func (c *Conn) Target() string {
	return c.target
}

// Disposition returns the disposition the connection was opened with.
func (c *Conn) Disposition() store.Disposition {
	return c.disposition
}

// Exec runs a statement that returns no rows.
func (c *Conn) Exec(query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(context.Background(), query, args...)
}

// Query runs a statement that returns rows.
func (c *Conn) Query(query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(context.Background(), query, args...)
}

// QueryRow runs a statement that returns at most one row.
func (c *Conn) QueryRow(query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(context.Background(), query, args...)
}

// Savepoint opens a named, nestable unit of work.
func (c *Conn) Savepoint(name string) (*store.Savepoint, error) {
	return store.NewSavepoint(c, name)
}

// Close closes the database connection.
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	if dbErr := c.db.Close(); err == nil {
		err = dbErr
	}
	c.conn = nil
	return err
}

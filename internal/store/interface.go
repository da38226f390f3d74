package store

import "database/sql"

// Disposition selects how a storage connection is opened.
type Disposition int

const (
	ReadOnly  Disposition = iota // Existing file, no writes
	ReadWrite                    // Existing file, writes allowed
	Create                       // Create the file if missing, writes allowed
)

func (d Disposition) String() string {
	switch d {
	case ReadOnly:
		return "ReadOnly"
	case ReadWrite:
		return "ReadWrite"
	case Create:
		return "Create"
	default:
		return "Unknown"
	}
}

// OpenFlags modify how an open target is interpreted.
type OpenFlags int

const (
	None OpenFlags = 0
	URI  OpenFlags = 1 // Target is a file: URI rather than a filesystem path
)

// Conn is a single connection to an index file.
// A Conn serializes its own operations but callers must not interleave
// savepoints from multiple goroutines.
type Conn interface {
	// Exec runs a statement that returns no rows
	Exec(query string, args ...any) (sql.Result, error)

	// Query runs a statement that returns rows
	Query(query string, args ...any) (*sql.Rows, error)

	// QueryRow runs a statement that returns at most one row
	QueryRow(query string, args ...any) *sql.Row

	// Savepoint opens a named, nestable unit of work
	Savepoint(name string) (*Savepoint, error)

	// Close releases the connection
	Close() error
}

// Package index is a local, file-backed index of package manifests.
//
// An Index wraps one SQLite connection, records its schema version and last
// write time in a metadata table, and delegates table layout to the
// implementation bound to that schema version. Every mutation runs in a
// named savepoint and either fully applies, advancing the last write time,
// or leaves the index unchanged.
package index

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/maloquacious/pkgindex/internal/logger"
	"github.com/maloquacious/pkgindex/internal/metrics"
	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/store"
	"github.com/maloquacious/pkgindex/internal/store/sqlite"
	"github.com/spf13/afero"
)

// Disposition selects how an existing index is opened.
type Disposition int

const (
	Read      Disposition = iota // Reads only
	ReadWrite                    // Reads and writes; the schema must match this build
	Immutable                    // Reads only, assuming nothing modifies the file while open
)

func (d Disposition) String() string {
	switch d {
	case Read:
		return "Read"
	case ReadWrite:
		return "ReadWrite"
	case Immutable:
		return "ImmutableRead"
	default:
		return "Unknown"
	}
}

// Index is an open manifest index. It is not safe for concurrent use.
type Index struct {
	conn    *sqlite.Conn
	version schema.Version
	impl    schema.Interface
	log     logger.Logger
	now     func() time.Time
	fs      afero.Fs
}

// CreateNew creates an index at path with the requested schema version and
// returns it open for writing. It fails if path already holds an index.
func CreateNew(path string, version schema.VersionRequest, opts ...Option) (idx *Index, err error) {
	o := newOptions(opts)
	defer func() {
		metrics.IndexOpenTotal.WithLabelValues("Create", metrics.Outcome(err)).Inc()
	}()

	o.log.Info("Creating new index [%s] at '%s'", version, path)

	impl, err := bind(version.Resolve())
	if err != nil {
		return nil, err
	}

	existed, err := store.CheckExists(path)
	if err != nil {
		return nil, err
	}

	conn, err := sqlite.Open(path, store.Create, store.None, sqlite.Options{BusyTimeout: o.busyTimeout})
	if err != nil {
		return nil, err
	}

	idx = newIndex(conn, impl.Version(), impl, o)
	if err := idx.initialize(); err != nil {
		_ = conn.Close()
		if !existed {
			_ = os.Remove(path)
		}
		return nil, fmt.Errorf("failed to create index at %s: %w", path, err)
	}
	return idx, nil
}

func (x *Index) initialize() error {
	sp, err := x.conn.Savepoint("sqliteindex_createnew")
	if err != nil {
		return err
	}
	defer x.rollback(sp)

	if err := sqlite.CreateMetadataTable(x.conn); err != nil {
		return err
	}
	if err := schema.WriteVersion(x.conn, x.version); err != nil {
		return err
	}
	if err := x.impl.CreateTables(x.conn); err != nil {
		return err
	}
	if err := x.SetLastWriteTime(); err != nil {
		return err
	}
	return sp.Commit()
}

// Open opens the existing index at path.
//
// ReadWrite requires the index's schema version to equal the version of the
// implementation this build binds to it; a newer minor version can only be
// opened for reading. Immutable opens the file through ImmutableURI.
func Open(path string, disposition Disposition, opts ...Option) (idx *Index, err error) {
	o := newOptions(opts)
	defer func() {
		metrics.IndexOpenTotal.WithLabelValues(disposition.String(), metrics.Outcome(err)).Inc()
	}()

	o.log.Info("Opening existing index with disposition [%s] at '%s'", disposition, path)

	target, mode, flags := path, store.ReadOnly, store.None
	switch disposition {
	case Read:
	case ReadWrite:
		mode = store.ReadWrite
	case Immutable:
		if err := store.MustExist(path); err != nil {
			return nil, err
		}
		target, flags = ImmutableURI(path), store.URI
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedDisposition, int(disposition))
	}

	conn, err := sqlite.Open(target, mode, flags, sqlite.Options{BusyTimeout: o.busyTimeout})
	if err != nil {
		return nil, err
	}

	idx, err = open(conn, disposition, o)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return idx, nil
}

func open(conn *sqlite.Conn, disposition Disposition, o options) (*Index, error) {
	version, err := schema.ReadVersion(conn)
	if err != nil {
		return nil, err
	}

	impl, err := bind(version)
	if err != nil {
		return nil, err
	}

	if disposition == ReadWrite && impl.Version() != version {
		return nil, fmt.Errorf("%w: index is %s, this build writes %s", ErrCannotWriteUplevel, version, impl.Version())
	}

	idx := newIndex(conn, version, impl, o)
	if lastWrite, err := idx.GetLastWriteTime(); err != nil {
		o.log.Warn("Opened index with version [%s], last write unknown: %v", version, err)
	} else {
		o.log.Info("Opened index with version [%s], last write [%s]", version, lastWrite.Format(time.RFC3339))
	}
	return idx, nil
}

func newIndex(conn *sqlite.Conn, version schema.Version, impl schema.Interface, o options) *Index {
	return &Index{
		conn:    conn,
		version: version,
		impl:    impl,
		log:     o.log,
		now:     o.now,
		fs:      o.fs,
	}
}

// Close closes the underlying connection.
func (x *Index) Close() error {
	return x.conn.Close()
}

// Version returns the schema version recorded in the index.
func (x *Index) Version() schema.Version {
	return x.version
}

// ImplementationVersion returns the version of the implementation bound to
// the index. It differs from Version when a newer minor version was opened
// for reading.
func (x *Index) ImplementationVersion() schema.Version {
	return x.impl.Version()
}

// Path returns the path or URI the index was opened with.
func (x *Index) Path() string {
	return x.conn.Target()
}

// SetLastWriteTime records the current time, in whole seconds since the
// Unix epoch, as the last write time.
func (x *Index) SetLastWriteTime() error {
	return sqlite.SetNamedValue(x.conn, sqlite.MetadataLastWriteTime, x.now().Unix())
}

// GetLastWriteTime returns the recorded last write time.
func (x *Index) GetLastWriteTime() (time.Time, error) {
	secs, err := sqlite.GetNamedInt64(x.conn, sqlite.MetadataLastWriteTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0), nil
}

func (x *Index) rollback(sp *store.Savepoint) {
	if err := sp.Rollback(); err != nil {
		x.log.Error("Failed to roll back %s: %v", sp.Name(), err)
	}
}

// IsUnsupported reports whether err means the index's schema cannot be
// handled by this build.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedVersion) || errors.Is(err, ErrCannotWriteUplevel)
}

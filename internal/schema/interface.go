package schema

import (
	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/store"
)

// RowID identifies a package identity row within an index.
type RowID int64

// Interface is the behavior bound to one schema version. The index
// orchestrator sequences these calls; implementations own the table layout.
type Interface interface {
	// Version returns the schema version this implementation writes
	Version() Version

	// CreateTables creates every table of the schema
	CreateTables(c store.Conn) error

	// AddManifest inserts a manifest stored at relativePath
	AddManifest(c store.Conn, m *manifest.Manifest, relativePath string) error

	// UpdateManifest replaces the manifest with the same id, version and
	// channel, reporting whether one existed
	UpdateManifest(c store.Conn, m *manifest.Manifest, relativePath string) (bool, error)

	// RemoveManifest deletes the manifest with the same id, version and channel
	RemoveManifest(c store.Conn, m *manifest.Manifest, relativePath string) error

	// PrepareForPackaging finalizes and compacts the index for distribution
	PrepareForPackaging(c store.Conn) error

	// Search finds packages matching the request
	Search(c store.Conn, req SearchRequest) (SearchResult, error)

	// GetIDStringByID returns the package identifier of a package row
	GetIDStringByID(c store.Conn, id RowID) (string, bool, error)

	// GetNameStringByID returns the name of the newest manifest of a package row
	GetNameStringByID(c store.Conn, id RowID) (string, bool, error)

	// GetPathStringByKey returns the relative path of one manifest
	GetPathStringByKey(c store.Conn, id RowID, version, channel string) (string, bool, error)

	// GetVersionsByID returns every version and channel of a package row, newest first
	GetVersionsByID(c store.Conn, id RowID) ([]manifest.VersionAndChannel, error)
}

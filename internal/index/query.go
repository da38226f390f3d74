package index

import (
	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/schema"
)

// Search returns the packages matching req. It never modifies the index.
func (x *Index) Search(req schema.SearchRequest) (schema.SearchResult, error) {
	x.log.Debug("Performing search: %s", req)
	return x.impl.Search(x.conn, req)
}

// GetIDStringByID returns the package identifier for a search result row.
func (x *Index) GetIDStringByID(id schema.RowID) (string, bool, error) {
	return x.impl.GetIDStringByID(x.conn, id)
}

// GetNameStringByID returns the name from the newest manifest of a package.
func (x *Index) GetNameStringByID(id schema.RowID) (string, bool, error) {
	return x.impl.GetNameStringByID(x.conn, id)
}

// GetPathStringByKey returns the relative path of the manifest with the
// given version and channel.
func (x *Index) GetPathStringByKey(id schema.RowID, version, channel string) (string, bool, error) {
	return x.impl.GetPathStringByKey(x.conn, id, version, channel)
}

// GetVersionsByID returns every version and channel of a package, newest first.
func (x *Index) GetVersionsByID(id schema.RowID) ([]manifest.VersionAndChannel, error) {
	return x.impl.GetVersionsByID(x.conn, id)
}

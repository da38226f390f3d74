package index

import (
	"errors"

	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/metrics"
	"github.com/maloquacious/pkgindex/internal/schema"
)

// Entry is one manifest in a batch add.
type Entry struct {
	Manifest     *manifest.Manifest
	RelativePath string
}

// mutate runs fn inside the named savepoint. The savepoint commits, and the
// last write time advances, only when fn succeeds and reports a change.
func (x *Index) mutate(name string, fn func() (bool, error)) (bool, error) {
	sp, err := x.conn.Savepoint(name)
	if err != nil {
		return false, err
	}
	defer x.rollback(sp)

	changed, err := fn()
	if err != nil || !changed {
		return false, err
	}
	if err := x.SetLastWriteTime(); err != nil {
		return false, err
	}
	if err := sp.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// AddManifest adds m, stored at relativePath, to the index.
func (x *Index) AddManifest(m *manifest.Manifest, relativePath string) (err error) {
	defer func() {
		metrics.IndexMutationTotal.WithLabelValues("add", metrics.Outcome(err)).Inc()
	}()

	x.log.Info("Adding manifest for [%s, %s] at relative path [%s]", m.ID, m.Version, relativePath)
	_, err = x.mutate("sqliteindex_addmanifest", func() (bool, error) {
		return true, x.impl.AddManifest(x.conn, m, relativePath)
	})
	return err
}

// AddManifestFromPath parses the manifest file at manifestPath and adds it.
// A file that fails to parse leaves the index untouched.
func (x *Index) AddManifestFromPath(manifestPath, relativePath string) error {
	x.log.Info("Adding manifest from file [%s]", manifestPath)
	m, err := manifest.ParseFile(x.fs, manifestPath)
	if err != nil {
		return err
	}
	return x.AddManifest(m, relativePath)
}

// AddManifests adds every entry in one unit of work. If any entry fails
// none of them are added.
func (x *Index) AddManifests(entries []Entry) error {
	x.log.Info("Adding %d manifests", len(entries))
	_, err := x.mutate("sqliteindex_addmanifests", func() (bool, error) {
		for _, e := range entries {
			if err := x.AddManifest(e.Manifest, e.RelativePath); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	return err
}

// UpdateManifest replaces the manifest with the same id, version and
// channel as m. It reports whether such a manifest existed; when none did
// the index, including its last write time, is unchanged.
func (x *Index) UpdateManifest(m *manifest.Manifest, relativePath string) (found bool, err error) {
	defer func() {
		outcome := metrics.Outcome(err)
		if err == nil && !found {
			outcome = metrics.NotFound
		}
		metrics.IndexMutationTotal.WithLabelValues("update", outcome).Inc()
	}()

	x.log.Info("Updating manifest for [%s, %s] at relative path [%s]", m.ID, m.Version, relativePath)
	return x.mutate("sqliteindex_updatemanifest", func() (bool, error) {
		return x.impl.UpdateManifest(x.conn, m, relativePath)
	})
}

// UpdateManifestFromPath parses the manifest file at manifestPath and
// updates the index with it.
func (x *Index) UpdateManifestFromPath(manifestPath, relativePath string) (bool, error) {
	x.log.Info("Updating manifest from file [%s]", manifestPath)
	m, err := manifest.ParseFile(x.fs, manifestPath)
	if err != nil {
		return false, err
	}
	return x.UpdateManifest(m, relativePath)
}

// RemoveManifest removes the manifest with the same id, version and
// channel as m. relativePath is accepted for symmetry with AddManifest.
func (x *Index) RemoveManifest(m *manifest.Manifest, relativePath string) (err error) {
	defer func() {
		outcome := metrics.Outcome(err)
		if errors.Is(err, schema.ErrManifestNotFound) {
			outcome = metrics.NotFound
		}
		metrics.IndexMutationTotal.WithLabelValues("remove", outcome).Inc()
	}()

	x.log.Info("Removing manifest for [%s, %s] at relative path [%s]", m.ID, m.Version, relativePath)
	_, err = x.mutate("sqliteindex_removemanifest", func() (bool, error) {
		return true, x.impl.RemoveManifest(x.conn, m, relativePath)
	})
	return err
}

// RemoveManifestFromPath parses the manifest file at manifestPath and
// removes the manifest it describes.
func (x *Index) RemoveManifestFromPath(manifestPath, relativePath string) error {
	x.log.Info("Removing manifest from file [%s]", manifestPath)
	m, err := manifest.ParseFile(x.fs, manifestPath)
	if err != nil {
		return err
	}
	return x.RemoveManifest(m, relativePath)
}

// PrepareForPackaging finalizes the index for distribution. It does not
// change the last write time.
func (x *Index) PrepareForPackaging() (err error) {
	defer func() {
		metrics.IndexMutationTotal.WithLabelValues("package", metrics.Outcome(err)).Inc()
	}()

	x.log.Info("Preparing index for packaging")
	return x.impl.PrepareForPackaging(x.conn)
}

package v1_0

import (
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/store"
)

// manifestRow is a manifest table row: interned rowids of each attribute.
type manifestRow struct {
	rowid   int64
	id      int64
	name    int64
	moniker int64
	version int64
	channel int64
	path    int64
}

// interned pairs an attribute value with the manifestRow field holding its rowid.
type interned struct {
	table valueTable
	value string
	rowid *int64
}

// normalizePath stores relative paths with forward slashes.
func normalizePath(relativePath string) string {
	p := strings.ReplaceAll(relativePath, `\`, "/")
	if p == "" {
		return p
	}
	return path.Clean(p)
}

// findManifest returns the manifest row keyed by id, version and channel.
func findManifest(c store.Conn, id, version, channel string) (manifestRow, bool, error) {
	var r manifestRow
	err := c.QueryRow(`SELECT m.rowid, m.id, m.name, m.moniker, m.version, m.channel, m.path
		FROM manifest m
		JOIN ids i ON m.id = i.rowid
		JOIN versions v ON m.version = v.rowid
		JOIN channels ch ON m.channel = ch.rowid
		WHERE i.id = ? AND v.version = ? AND ch.channel = ?`, id, version, channel).
		Scan(&r.rowid, &r.id, &r.name, &r.moniker, &r.version, &r.channel, &r.path)
	if errors.Is(err, sql.ErrNoRows) {
		return manifestRow{}, false, nil
	}
	if err != nil {
		return manifestRow{}, false, fmt.Errorf("failed to query manifest: %w", err)
	}
	return r, true, nil
}

func manifestKey(m *manifest.Manifest) string {
	return fmt.Sprintf("%s %s %q", m.ID, m.Version, m.Channel)
}

// AddManifest inserts a manifest stored at relativePath.
func (i *Interface) AddManifest(c store.Conn, m *manifest.Manifest, relativePath string) error {
	if _, found, err := findManifest(c, m.ID, m.Version, m.Channel); err != nil {
		return err
	} else if found {
		return fmt.Errorf("%s: %w", manifestKey(m), schema.ErrManifestExists)
	}

	var r manifestRow
	values := []interned{
		{idsTable, m.ID, &r.id},
		{namesTable, m.Name, &r.name},
		{monikersTable, m.Moniker, &r.moniker},
		{versionsTable, m.Version, &r.version},
		{channelsTable, m.Channel, &r.channel},
		{pathsTable, normalizePath(relativePath), &r.path},
	}

	for _, v := range values {
		rowid, err := ensureValue(c, v.table.Name, v.table.Column, v.value)
		if err != nil {
			return err
		}
		*v.rowid = rowid
	}

	res, err := c.Exec(`INSERT INTO manifest (id, name, moniker, version, channel, path) VALUES (?, ?, ?, ?, ?, ?)`,
		r.id, r.name, r.moniker, r.version, r.channel, r.path)
	if err != nil {
		return fmt.Errorf("failed to insert manifest %s: %w", manifestKey(m), err)
	}
	if r.rowid, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read manifest rowid: %w", err)
	}

	for _, t := range i.maps {
		if err := t.insertValues(c, r.rowid, t.Values(m)); err != nil {
			return err
		}
	}
	return nil
}

// UpdateManifest replaces the name, moniker, path and one-to-many attributes
// of the manifest keyed by m's id, version and channel. It reports false,
// changing nothing, when no such manifest exists.
func (i *Interface) UpdateManifest(c store.Conn, m *manifest.Manifest, relativePath string) (bool, error) {
	old, found, err := findManifest(c, m.ID, m.Version, m.Channel)
	if err != nil || !found {
		return false, err
	}

	name, err := ensureValue(c, namesTable.Name, namesTable.Column, m.Name)
	if err != nil {
		return false, err
	}
	moniker, err := ensureValue(c, monikersTable.Name, monikersTable.Column, m.Moniker)
	if err != nil {
		return false, err
	}
	p, err := ensureValue(c, pathsTable.Name, pathsTable.Column, normalizePath(relativePath))
	if err != nil {
		return false, err
	}

	if _, err := c.Exec(`UPDATE manifest SET name = ?, moniker = ?, path = ? WHERE rowid = ?`, name, moniker, p, old.rowid); err != nil {
		return false, fmt.Errorf("failed to update manifest %s: %w", manifestKey(m), err)
	}

	for _, cleanup := range []interned{{namesTable, "", &old.name}, {monikersTable, "", &old.moniker}, {pathsTable, "", &old.path}} {
		if err := cleanup.table.deleteIfUnused(c, *cleanup.rowid); err != nil {
			return false, err
		}
	}

	for _, t := range i.maps {
		if err := t.removeValues(c, old.rowid); err != nil {
			return false, err
		}
		if err := t.insertValues(c, old.rowid, t.Values(m)); err != nil {
			return false, err
		}
	}
	return true, nil
}

// RemoveManifest deletes the manifest keyed by m's id, version and channel
// and every interned value only it referenced. Manifests are keyed by
// identity; relativePath is not consulted.
func (i *Interface) RemoveManifest(c store.Conn, m *manifest.Manifest, relativePath string) error {
	r, found, err := findManifest(c, m.ID, m.Version, m.Channel)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", manifestKey(m), schema.ErrManifestNotFound)
	}

	for _, t := range i.maps {
		if err := t.removeValues(c, r.rowid); err != nil {
			return err
		}
	}

	if _, err := c.Exec(`DELETE FROM manifest WHERE rowid = ?`, r.rowid); err != nil {
		return fmt.Errorf("failed to delete manifest %s: %w", manifestKey(m), err)
	}

	for _, cleanup := range []interned{
		{idsTable, "", &r.id},
		{namesTable, "", &r.name},
		{monikersTable, "", &r.moniker},
		{versionsTable, "", &r.version},
		{channelsTable, "", &r.channel},
		{pathsTable, "", &r.path},
	} {
		if err := cleanup.table.deleteIfUnused(c, *cleanup.rowid); err != nil {
			return err
		}
	}
	return nil
}

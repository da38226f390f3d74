package v1_0

import (
	"fmt"

	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/store"
)

// GetIDStringByID returns the package identifier of a package row.
func (i *Interface) GetIDStringByID(c store.Conn, id schema.RowID) (string, bool, error) {
	s, ok, err := lookupString(c, `SELECT id FROM ids WHERE rowid = ?`, id)
	if err != nil {
		return "", false, fmt.Errorf("failed to look up id %d: %w", id, err)
	}
	return s, ok, nil
}

// GetNameStringByID returns the name of the newest manifest of a package row.
func (i *Interface) GetNameStringByID(c store.Conn, id schema.RowID) (string, bool, error) {
	rows, err := c.Query(`SELECT v.version, ch.channel, n.name
		FROM manifest m
		JOIN versions v ON m.version = v.rowid
		JOIN channels ch ON m.channel = ch.rowid
		JOIN names n ON m.name = n.rowid
		WHERE m.id = ?`, id)
	if err != nil {
		return "", false, fmt.Errorf("failed to look up name %d: %w", id, err)
	}
	defer rows.Close()

	var versions []manifest.VersionAndChannel
	names := make(map[manifest.VersionAndChannel]string)
	for rows.Next() {
		var vc manifest.VersionAndChannel
		var name string
		if err := rows.Scan(&vc.Version, &vc.Channel, &name); err != nil {
			return "", false, fmt.Errorf("failed to scan name: %w", err)
		}
		versions = append(versions, vc)
		names[vc] = name
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}
	if len(versions) == 0 {
		return "", false, nil
	}
	manifest.SortDescending(versions)
	return names[versions[0]], true, nil
}

// GetPathStringByKey returns the relative path of one manifest.
func (i *Interface) GetPathStringByKey(c store.Conn, id schema.RowID, version, channel string) (string, bool, error) {
	s, ok, err := lookupString(c, `SELECT p.path
		FROM manifest m
		JOIN versions v ON m.version = v.rowid
		JOIN channels ch ON m.channel = ch.rowid
		JOIN paths p ON m.path = p.rowid
		WHERE m.id = ? AND v.version = ? AND ch.channel = ?`, id, version, channel)
	if err != nil {
		return "", false, fmt.Errorf("failed to look up path %d %s %q: %w", id, version, channel, err)
	}
	return s, ok, nil
}

// GetVersionsByID returns every version and channel of a package row, newest first.
func (i *Interface) GetVersionsByID(c store.Conn, id schema.RowID) ([]manifest.VersionAndChannel, error) {
	rows, err := c.Query(`SELECT v.version, ch.channel
		FROM manifest m
		JOIN versions v ON m.version = v.rowid
		JOIN channels ch ON m.channel = ch.rowid
		WHERE m.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up versions %d: %w", id, err)
	}
	defer rows.Close()

	var out []manifest.VersionAndChannel
	for rows.Next() {
		var vc manifest.VersionAndChannel
		if err := rows.Scan(&vc.Version, &vc.Channel); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		out = append(out, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	manifest.SortDescending(out)
	return out, nil
}

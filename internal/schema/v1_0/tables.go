package v1_0

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/maloquacious/pkgindex/internal/store"
)

// valueTable interns one manifest attribute. The manifest table references
// it through a column named after Column.
type valueTable struct {
	Name   string
	Column string
}

var (
	idsTable      = valueTable{Name: "ids", Column: "id"}
	namesTable    = valueTable{Name: "names", Column: "name"}
	monikersTable = valueTable{Name: "monikers", Column: "moniker"}
	versionsTable = valueTable{Name: "versions", Column: "version"}
	channelsTable = valueTable{Name: "channels", Column: "channel"}
	pathsTable    = valueTable{Name: "paths", Column: "path"}

	valueTables = []valueTable{idsTable, namesTable, monikersTable, versionsTable, channelsTable, pathsTable}
)

var manifestSchema = []string{
	`CREATE TABLE manifest (
    rowid INTEGER PRIMARY KEY,
    id INT64 NOT NULL,
    name INT64 NOT NULL,
    moniker INT64 NOT NULL,
    version INT64 NOT NULL,
    channel INT64 NOT NULL,
    path INT64 NOT NULL
)`,
	`CREATE UNIQUE INDEX manifest_id_version_channel ON manifest (id, version, channel)`,
	`CREATE INDEX manifest_name ON manifest (name)`,
	`CREATE INDEX manifest_moniker ON manifest (moniker)`,
}

func (t valueTable) createSQL() string {
	return fmt.Sprintf(`CREATE TABLE %s (
    rowid INTEGER PRIMARY KEY,
    %s TEXT NOT NULL UNIQUE
)`, t.Name, t.Column)
}

func (t MapTable) createSQL() []string {
	return []string{
		valueTable{Name: t.Name, Column: t.Column}.createSQL(),
		fmt.Sprintf(`CREATE TABLE %s (
    manifest INT64 NOT NULL,
    %s INT64 NOT NULL,
    PRIMARY KEY (%s, manifest)
) WITHOUT ROWID`, t.MapName(), t.Column, t.Column),
		fmt.Sprintf(`CREATE INDEX %s_manifest ON %s (manifest)`, t.MapName(), t.MapName()),
	}
}

// ensureValue returns the rowid of value in table, inserting it if needed.
func ensureValue(c store.Conn, table, column, value string) (int64, error) {
	if _, err := c.Exec(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?) ON CONFLICT (%s) DO NOTHING`, table, column, column), value); err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	var rowid int64
	if err := c.QueryRow(fmt.Sprintf(`SELECT rowid FROM %s WHERE %s = ?`, table, column), value).Scan(&rowid); err != nil {
		return 0, fmt.Errorf("failed to read %s rowid: %w", table, err)
	}
	return rowid, nil
}

// deleteValueIfUnused removes an interned value nothing references anymore.
// usedBy is a query returning a row when rowid is still referenced.
func deleteValueIfUnused(c store.Conn, table string, rowid int64, usedBy string) error {
	_, err := c.Exec(fmt.Sprintf(`DELETE FROM %s WHERE rowid = ? AND NOT EXISTS (%s)`, table, usedBy), rowid, rowid)
	if err != nil {
		return fmt.Errorf("failed to clean up %s: %w", table, err)
	}
	return nil
}

func (t valueTable) deleteIfUnused(c store.Conn, rowid int64) error {
	return deleteValueIfUnused(c, t.Name, rowid, fmt.Sprintf(`SELECT 1 FROM manifest WHERE %s = ?`, t.Column))
}

func (t MapTable) deleteIfUnused(c store.Conn, rowid int64) error {
	return deleteValueIfUnused(c, t.Name, rowid, fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = ?`, t.MapName(), t.Column))
}

// mapValues returns the value rowids mapped to a manifest row.
func (t MapTable) mapValues(c store.Conn, manifestRow int64) ([]int64, error) {
	rows, err := c.Query(fmt.Sprintf(`SELECT %s FROM %s WHERE manifest = ?`, t.Column, t.MapName()), manifestRow)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.MapName(), err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.MapName(), err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// insertValues interns values and maps each to manifestRow.
func (t MapTable) insertValues(c store.Conn, manifestRow int64, values []string) error {
	for _, v := range values {
		if v == "" {
			continue
		}
		rowid, err := ensureValue(c, t.Name, t.Column, v)
		if err != nil {
			return err
		}
		_, err = c.Exec(fmt.Sprintf(`INSERT INTO %s (manifest, %s) VALUES (?, ?) ON CONFLICT DO NOTHING`, t.MapName(), t.Column), manifestRow, rowid)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", t.MapName(), err)
		}
	}
	return nil
}

// removeValues unmaps every value of manifestRow and drops orphaned values.
func (t MapTable) removeValues(c store.Conn, manifestRow int64) error {
	old, err := t.mapValues(c, manifestRow)
	if err != nil {
		return err
	}
	if _, err := c.Exec(fmt.Sprintf(`DELETE FROM %s WHERE manifest = ?`, t.MapName()), manifestRow); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.MapName(), err)
	}
	for _, rowid := range old {
		if err := t.deleteIfUnused(c, rowid); err != nil {
			return err
		}
	}
	return nil
}

// lookupString reads a single optional string.
func lookupString(c store.Conn, query string, args ...any) (string, bool, error) {
	var s string
	err := c.QueryRow(query, args...).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Package v1_0 implements schema version 1.0 of the package index.
//
// Strings are interned into one table per attribute and the manifest table
// references them by rowid. One-to-many attributes (tags, commands) live in
// a value table plus a <name>_map table joining values to manifests.
package v1_0

import (
	"fmt"

	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/store"
)

// Version is the schema version implemented by New.
var Version = schema.Version{Major: 1, Minor: 0}

// MapTable describes a one-to-many manifest attribute.
type MapTable struct {
	// Name of the value table; the map table is Name + "_map"
	Name string
	// Column holding the value, also the map table's reference column
	Column string
	// Field searched through this table
	Field schema.PackageMatchField
	// Values extracts the attribute values from a manifest
	Values func(*manifest.Manifest) []string
}

// MapName returns the name of the table joining values to manifests.
func (t MapTable) MapName() string {
	return t.Name + "_map"
}

var (
	tagsTable = MapTable{
		Name:   "tags",
		Column: "tag",
		Field:  schema.FieldTag,
		Values: func(m *manifest.Manifest) []string { return m.Tags },
	}
	commandsTable = MapTable{
		Name:   "commands",
		Column: "command",
		Field:  schema.FieldCommand,
		Values: func(m *manifest.Manifest) []string { return m.Commands },
	}
)

// Interface implements schema.Interface for version 1.0 and, through Extend,
// for later minor versions that only add one-to-many attributes.
type Interface struct {
	version schema.Version
	maps    []MapTable
}

var _ schema.Interface = (*Interface)(nil)

// New returns the version 1.0 implementation.
func New() *Interface {
	return Extend(Version)
}

// Extend returns an implementation reporting version v whose layout is the
// 1.0 layout plus the extra map tables.
func Extend(v schema.Version, extra ...MapTable) *Interface {
	maps := []MapTable{tagsTable, commandsTable}
	return &Interface{version: v, maps: append(maps, extra...)}
}

// Version returns the schema version this implementation writes.
func (i *Interface) Version() schema.Version {
	return i.version
}

// CreateTables creates every table of the schema.
func (i *Interface) CreateTables(c store.Conn) error {
	var statements []string
	for _, t := range valueTables {
		statements = append(statements, t.createSQL())
	}
	statements = append(statements, manifestSchema...)
	for _, t := range i.maps {
		statements = append(statements, t.createSQL()...)
	}

	for _, statement := range statements {
		if _, err := c.Exec(statement); err != nil {
			return fmt.Errorf("failed to create %s tables: %w", i.version, err)
		}
	}
	return nil
}

// PrepareForPackaging refreshes planner statistics and rebuilds the file
// without free pages. It must not run inside a savepoint.
func (i *Interface) PrepareForPackaging(c store.Conn) error {
	for _, statement := range []string{"ANALYZE", "VACUUM"} {
		if _, err := c.Exec(statement); err != nil {
			return fmt.Errorf("failed to prepare index for packaging: %s: %w", statement, err)
		}
	}
	return nil
}

func (i *Interface) mapFor(f schema.PackageMatchField) (MapTable, bool) {
	for _, t := range i.maps {
		if t.Field == f {
			return t, true
		}
	}
	return MapTable{}, false
}

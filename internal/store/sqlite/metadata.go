package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/maloquacious/pkgindex/internal/store"
)

// Reserved metadata keys.
const (
	MetadataMajorVersion  = "majorVersion"
	MetadataMinorVersion  = "minorVersion"
	MetadataLastWriteTime = "lastwritetime"
)

// ErrNamedValueNotFound is returned when a metadata key has no value.
var ErrNamedValueNotFound = errors.New("metadata value not found")

// metadataSchema holds free-form named values such as the schema version.
// It is created without IF NOT EXISTS so that creating an index over an
// existing one fails.
const metadataSchema = `
CREATE TABLE metadata (
    name TEXT PRIMARY KEY NOT NULL,
    value NOT NULL
);
`

// CreateMetadataTable creates the metadata table.
func CreateMetadataTable(c store.Conn) error {
	if _, err := c.Exec(metadataSchema); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	return nil
}

// SetNamedValue inserts or replaces a metadata value.
func SetNamedValue(c store.Conn, name string, value any) error {
	_, err := c.Exec(`INSERT INTO metadata (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`, name, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata %s: %w", name, err)
	}
	return nil
}

// GetNamedInt64 reads an integer metadata value.
func GetNamedInt64(c store.Conn, name string) (int64, error) {
	var value int64
	if err := getNamedValue(c, name, &value); err != nil {
		return 0, err
	}
	return value, nil
}

func getNamedValue(c store.Conn, name string, dest any) error {
	err := c.QueryRow(`SELECT value FROM metadata WHERE name = ?`, name).Scan(dest)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", name, ErrNamedValueNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query metadata %s: %w", name, err)
	}
	return nil
}

package schema

import "errors"

var (
	// ErrManifestExists is returned when adding a manifest whose id, version
	// and channel are already indexed.
	ErrManifestExists = errors.New("manifest already exists")

	// ErrManifestNotFound is returned when removing a manifest that is not indexed.
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrUnsupportedField is returned when a search names a field the
	// schema version cannot match.
	ErrUnsupportedField = errors.New("unsupported match field")
)

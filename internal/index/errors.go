package index

import (
	"errors"

	"github.com/maloquacious/pkgindex/internal/schema"
)

var (
	// ErrCannotWriteUplevel is returned when opening for ReadWrite an index
	// whose schema version is newer than this build can write.
	ErrCannotWriteUplevel = errors.New("cannot write to up-level index")

	// ErrUnexpectedDisposition is returned for a Disposition outside the known set.
	ErrUnexpectedDisposition = errors.New("unexpected open disposition")

	// ErrUnsupportedVersion is returned when no implementation exists for
	// an index's schema major version.
	ErrUnsupportedVersion = schema.ErrUnsupportedVersion
)

// Package schema defines index schema versions and the capability set each
// concrete schema version implements.
package schema

import (
	"errors"
	"fmt"

	"github.com/maloquacious/pkgindex/internal/store"
	"github.com/maloquacious/pkgindex/internal/store/sqlite"
)

// ErrUnsupportedVersion is returned when no implementation exists for a schema version.
var ErrUnsupportedVersion = errors.New("unsupported schema version")

// Version is the (major, minor) identifier of an index table layout.
type Version struct {
	Major int
	Minor int
}

// LatestVersion is the newest schema version this build can write.
var LatestVersion = Version{Major: 1, Minor: 1}

// Compare returns -1, 0 or 1 ordering v against o.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		if v.Major < o.Major {
			return -1
		}
		return 1
	case v.Minor != o.Minor:
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// VersionRequest is the version asked for when creating an index: either a
// concrete version or the latest known one.
type VersionRequest struct {
	latest  bool
	version Version
}

// Latest requests the newest known schema version.
func Latest() VersionRequest {
	return VersionRequest{latest: true}
}

// Concrete requests a specific schema version.
func Concrete(major, minor int) VersionRequest {
	return VersionRequest{version: Version{Major: major, Minor: minor}}
}

// IsLatest reports whether r is the latest sentinel.
func (r VersionRequest) IsLatest() bool {
	return r.latest
}

// Resolve returns the concrete version r names.
func (r VersionRequest) Resolve() Version {
	if r.latest {
		return LatestVersion
	}
	return r.version
}

func (r VersionRequest) String() string {
	if r.latest {
		return "latest"
	}
	return r.version.String()
}

// ReadVersion reads the schema version recorded in the index metadata.
func ReadVersion(c store.Conn) (Version, error) {
	major, err := sqlite.GetNamedInt64(c, sqlite.MetadataMajorVersion)
	if err != nil {
		return Version{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	minor, err := sqlite.GetNamedInt64(c, sqlite.MetadataMinorVersion)
	if err != nil {
		return Version{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return Version{Major: int(major), Minor: int(minor)}, nil
}

// WriteVersion records v in the index metadata.
func WriteVersion(c store.Conn, v Version) error {
	if err := sqlite.SetNamedValue(c, sqlite.MetadataMajorVersion, int64(v.Major)); err != nil {
		return err
	}
	return sqlite.SetNamedValue(c, sqlite.MetadataMinorVersion, int64(v.Minor))
}

package index

import (
	"fmt"

	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/schema/v1_0"
	"github.com/maloquacious/pkgindex/internal/schema/v1_1"
)

// bind returns the implementation for v. Minor versions of a known major
// bind to the newest implementation of that major, which may report an
// older version than v.
func bind(v schema.Version) (schema.Interface, error) {
	switch v.Major {
	case 1:
		if v.Minor == 0 {
			return v1_0.New(), nil
		}
		return v1_1.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", schema.ErrUnsupportedVersion, v)
	}
}

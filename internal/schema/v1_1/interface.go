// Package v1_1 implements schema version 1.1: the 1.0 layout plus installer
// product codes, searchable through the ProductCode field.
package v1_1

import (
	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/schema/v1_0"
)

// Version is the schema version implemented by New.
var Version = schema.Version{Major: 1, Minor: 1}

var productCodesTable = v1_0.MapTable{
	Name:   "productcodes",
	Column: "productcode",
	Field:  schema.FieldProductCode,
	Values: func(m *manifest.Manifest) []string { return m.ProductCodes() },
}

// New returns the version 1.1 implementation.
func New() *v1_0.Interface {
	return v1_0.Extend(Version, productCodesTable)
}

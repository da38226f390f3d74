package schema

import (
	"fmt"
	"strings"
)

// MatchType selects how a value is compared.
type MatchType int

const (
	MatchExact MatchType = iota
	MatchCaseInsensitive
	MatchStartsWith
	MatchSubstring
)

func (t MatchType) String() string {
	switch t {
	case MatchExact:
		return "Exact"
	case MatchCaseInsensitive:
		return "CaseInsensitive"
	case MatchStartsWith:
		return "StartsWith"
	case MatchSubstring:
		return "Substring"
	default:
		return "Unknown"
	}
}

// ParseMatchType parses the name of a match type, ignoring case.
func ParseMatchType(s string) (MatchType, error) {
	for t := MatchExact; t <= MatchSubstring; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown match type %q", s)
}

// PackageMatchField names a searchable manifest field.
type PackageMatchField int

const (
	FieldID PackageMatchField = iota
	FieldName
	FieldMoniker
	FieldTag
	FieldCommand
	FieldProductCode
)

func (f PackageMatchField) String() string {
	switch f {
	case FieldID:
		return "Id"
	case FieldName:
		return "Name"
	case FieldMoniker:
		return "Moniker"
	case FieldTag:
		return "Tag"
	case FieldCommand:
		return "Command"
	case FieldProductCode:
		return "ProductCode"
	default:
		return "Unknown"
	}
}

// ParsePackageMatchField parses the name of a field, ignoring case.
func ParsePackageMatchField(s string) (PackageMatchField, error) {
	for f := FieldID; f <= FieldProductCode; f++ {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown match field %q", s)
}

// RequestMatch is a free-text query matched against every searchable field.
type RequestMatch struct {
	Type  MatchType
	Value string
}

// PackageMatchFilter matches one field.
type PackageMatchFilter struct {
	Field PackageMatchField
	Type  MatchType
	Value string
}

func (f PackageMatchFilter) String() string {
	return fmt.Sprintf("%s %s %q", f.Field, f.Type, f.Value)
}

// SearchRequest selects packages. Packages matching Query or any Inclusion
// are candidates; every Filter must then also match. An empty Query with no
// Inclusions selects all packages.
type SearchRequest struct {
	Query          *RequestMatch
	Inclusions     []PackageMatchFilter
	Filters        []PackageMatchFilter
	MaximumResults int
}

// IsForEverything reports whether the request has no query and no inclusions.
func (r SearchRequest) IsForEverything() bool {
	return r.Query == nil && len(r.Inclusions) == 0
}

func (r SearchRequest) String() string {
	var b strings.Builder
	if r.Query != nil {
		fmt.Fprintf(&b, "Query:%s %q", r.Query.Type, r.Query.Value)
	} else {
		b.WriteString("Query:none")
	}
	for _, f := range r.Inclusions {
		fmt.Fprintf(&b, " Include:[%s]", f)
	}
	for _, f := range r.Filters {
		fmt.Fprintf(&b, " Filter:[%s]", f)
	}
	if r.MaximumResults > 0 {
		fmt.Fprintf(&b, " Limit:%d", r.MaximumResults)
	}
	return b.String()
}

// Match is one package found by a search and the filter that found it.
type Match struct {
	ID     RowID
	Filter PackageMatchFilter
}

// SearchResult holds the packages found by a search, in a stable order.
type SearchResult struct {
	Matches   []Match
	Truncated bool
}

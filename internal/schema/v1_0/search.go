package v1_0

import (
	"fmt"
	"strings"

	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/store"
)

// queryFields are matched by a free-text query, in result priority order.
var queryFields = []schema.PackageMatchField{
	schema.FieldID,
	schema.FieldName,
	schema.FieldMoniker,
	schema.FieldCommand,
	schema.FieldTag,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// condition returns the SQL comparison for column and its bound argument.
func condition(column string, t schema.MatchType, value string) (string, any, error) {
	switch t {
	case schema.MatchExact:
		return column + " = ?", value, nil
	case schema.MatchCaseInsensitive:
		return column + " = ? COLLATE NOCASE", value, nil
	case schema.MatchStartsWith:
		return column + ` LIKE ? ESCAPE '\'`, likeEscaper.Replace(value) + "%", nil
	case schema.MatchSubstring:
		return column + ` LIKE ? ESCAPE '\'`, "%" + likeEscaper.Replace(value) + "%", nil
	default:
		return "", nil, fmt.Errorf("unknown match type %d", t)
	}
}

// searchableFields lists the query fields this implementation supports.
func (i *Interface) searchableFields() []schema.PackageMatchField {
	fields := append([]schema.PackageMatchField(nil), queryFields...)
	for _, t := range i.maps {
		if t.Field != schema.FieldTag && t.Field != schema.FieldCommand {
			fields = append(fields, t.Field)
		}
	}
	return fields
}

// matchField returns the package rowids with a manifest whose field matches,
// in rowid order.
func (i *Interface) matchField(c store.Conn, f schema.PackageMatchFilter) ([]schema.RowID, error) {
	var from, column string
	switch f.Field {
	case schema.FieldID:
		from, column = "manifest m JOIN ids t ON m.id = t.rowid", "t.id"
	case schema.FieldName:
		from, column = "manifest m JOIN names t ON m.name = t.rowid", "t.name"
	case schema.FieldMoniker:
		from, column = "manifest m JOIN monikers t ON m.moniker = t.rowid", "t.moniker"
	default:
		mt, ok := i.mapFor(f.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s in schema %s", schema.ErrUnsupportedField, f.Field, i.version)
		}
		from = fmt.Sprintf("manifest m JOIN %s mm ON mm.manifest = m.rowid JOIN %s t ON mm.%s = t.rowid",
			mt.MapName(), mt.Name, mt.Column)
		column = "t." + mt.Column
	}

	cond, arg, err := condition(column, f.Type, f.Value)
	if err != nil {
		return nil, err
	}
	// An empty moniker is stored but never matches.
	if f.Field == schema.FieldMoniker {
		cond += " AND t.moniker <> ''"
	}

	rows, err := c.Query(fmt.Sprintf(`SELECT DISTINCT m.id FROM %s WHERE %s ORDER BY m.id`, from, cond), arg)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", f.Field, err)
	}
	defer rows.Close()

	var ids []schema.RowID
	for rows.Next() {
		var id schema.RowID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (i *Interface) allPackages(c store.Conn) ([]schema.RowID, error) {
	rows, err := c.Query(`SELECT rowid FROM ids ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var ids []schema.RowID
	for rows.Next() {
		var id schema.RowID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Search finds packages matching req. Candidates come from the query (in
// field priority order) and then the inclusions; a package appears once,
// attributed to the first filter that found it. Every filter must match a
// candidate for it to be kept. Results beyond MaximumResults are dropped and
// the result marked truncated.
func (i *Interface) Search(c store.Conn, req schema.SearchRequest) (schema.SearchResult, error) {
	var result schema.SearchResult
	seen := make(map[schema.RowID]bool)
	add := func(f schema.PackageMatchFilter) error {
		ids, err := i.matchField(c, f)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				result.Matches = append(result.Matches, schema.Match{ID: id, Filter: f})
			}
		}
		return nil
	}

	if req.IsForEverything() {
		ids, err := i.allPackages(c)
		if err != nil {
			return schema.SearchResult{}, err
		}
		for _, id := range ids {
			result.Matches = append(result.Matches, schema.Match{ID: id})
		}
	} else {
		if req.Query != nil {
			for _, field := range i.searchableFields() {
				if err := add(schema.PackageMatchFilter{Field: field, Type: req.Query.Type, Value: req.Query.Value}); err != nil {
					return schema.SearchResult{}, err
				}
			}
		}
		for _, inc := range req.Inclusions {
			if err := add(inc); err != nil {
				return schema.SearchResult{}, err
			}
		}
	}

	for _, f := range req.Filters {
		ids, err := i.matchField(c, f)
		if err != nil {
			return schema.SearchResult{}, err
		}
		keep := make(map[schema.RowID]bool, len(ids))
		for _, id := range ids {
			keep[id] = true
		}
		filtered := result.Matches[:0]
		for _, m := range result.Matches {
			if keep[m.ID] {
				filtered = append(filtered, m)
			}
		}
		result.Matches = filtered
	}

	if req.MaximumResults > 0 && len(result.Matches) > req.MaximumResults {
		result.Matches = result.Matches[:req.MaximumResults]
		result.Truncated = true
	}
	return result, nil
}

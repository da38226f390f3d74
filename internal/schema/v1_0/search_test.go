package v1_0

import (
	"errors"

	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/schema"
)

func (s *InterfaceSuite) seedSearch() {
	for _, m := range []*manifest.Manifest{
		{ID: "Contoso.Tool", Name: "Contoso Tool", Version: "1.0", Moniker: "ctool", Tags: []string{"cli"}, Commands: []string{"ctool"}},
		{ID: "Fabrikam.Editor", Name: "Fabrikam Editor", Version: "2.0", Tags: []string{"editor", "tool"}},
		{ID: "Fabrikam.Viewer", Name: "Viewer 100%", Version: "3.0", Commands: []string{"fview"}},
	} {
		s.Require().NoError(s.impl.AddManifest(s.conn, m, m.ID+".yaml"))
	}
}

func (s *InterfaceSuite) ids(res schema.SearchResult) []string {
	var out []string
	for _, m := range res.Matches {
		id, ok, err := s.impl.GetIDStringByID(s.conn, m.ID)
		s.Require().NoError(err)
		s.Require().True(ok)
		out = append(out, id)
	}
	return out
}

func (s *InterfaceSuite) TestSearchEverything() {
	s.seedSearch()
	res, err := s.impl.Search(s.conn, schema.SearchRequest{})
	s.Require().NoError(err)
	s.Equal([]string{"Contoso.Tool", "Fabrikam.Editor", "Fabrikam.Viewer"}, s.ids(res))
	s.False(res.Truncated)
}

func (s *InterfaceSuite) TestSearchQuery() {
	s.seedSearch()

	tests := []struct {
		name  string
		match schema.RequestMatch
		want  []string
		field schema.PackageMatchField
	}{
		{
			name:  "substring hits id before tag",
			match: schema.RequestMatch{Type: schema.MatchSubstring, Value: "tool"},
			want:  []string{"Contoso.Tool", "Fabrikam.Editor"},
			field: schema.FieldID,
		},
		{
			name:  "exact is case sensitive",
			match: schema.RequestMatch{Type: schema.MatchExact, Value: "contoso.tool"},
			want:  nil,
		},
		{
			name:  "case insensitive",
			match: schema.RequestMatch{Type: schema.MatchCaseInsensitive, Value: "contoso.tool"},
			want:  []string{"Contoso.Tool"},
			field: schema.FieldID,
		},
		{
			name:  "starts with",
			match: schema.RequestMatch{Type: schema.MatchStartsWith, Value: "Fabrikam"},
			want:  []string{"Fabrikam.Editor", "Fabrikam.Viewer"},
			field: schema.FieldID,
		},
		{
			name:  "like wildcards are literal",
			match: schema.RequestMatch{Type: schema.MatchSubstring, Value: "100%"},
			want:  []string{"Fabrikam.Viewer"},
			field: schema.FieldName,
		},
		{
			name:  "command",
			match: schema.RequestMatch{Type: schema.MatchExact, Value: "fview"},
			want:  []string{"Fabrikam.Viewer"},
			field: schema.FieldCommand,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			match := tt.match
			res, err := s.impl.Search(s.conn, schema.SearchRequest{Query: &match})
			s.Require().NoError(err)
			s.Equal(tt.want, s.ids(res))
			if len(res.Matches) > 0 {
				s.Equal(tt.field, res.Matches[0].Filter.Field)
			}
		})
	}
}

func (s *InterfaceSuite) TestSearchFiltersAndLimit() {
	s.seedSearch()

	res, err := s.impl.Search(s.conn, schema.SearchRequest{
		Query:   &schema.RequestMatch{Type: schema.MatchSubstring, Value: "a"},
		Filters: []schema.PackageMatchFilter{{Field: schema.FieldTag, Type: schema.MatchExact, Value: "editor"}},
	})
	s.Require().NoError(err)
	s.Equal([]string{"Fabrikam.Editor"}, s.ids(res))

	res, err = s.impl.Search(s.conn, schema.SearchRequest{MaximumResults: 2})
	s.Require().NoError(err)
	s.Len(res.Matches, 2)
	s.True(res.Truncated)
}

func (s *InterfaceSuite) TestSearchIsRepeatable() {
	s.seedSearch()
	req := schema.SearchRequest{Query: &schema.RequestMatch{Type: schema.MatchSubstring, Value: "o"}}

	first, err := s.impl.Search(s.conn, req)
	s.Require().NoError(err)
	second, err := s.impl.Search(s.conn, req)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *InterfaceSuite) TestSearchUnsupportedField() {
	s.seedSearch()
	_, err := s.impl.Search(s.conn, schema.SearchRequest{
		Inclusions: []schema.PackageMatchFilter{{Field: schema.FieldProductCode, Type: schema.MatchExact, Value: "{A}"}},
	})
	s.Require().Error(err)
	s.True(errors.Is(err, schema.ErrUnsupportedField))
}

package v1_0

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/store"
	"github.com/maloquacious/pkgindex/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type InterfaceSuite struct {
	suite.Suite
	conn *sqlite.Conn
	impl *Interface
}

func TestInterfaceSuite(t *testing.T) {
	suite.Run(t, new(InterfaceSuite))
}

func (s *InterfaceSuite) SetupTest() {
	c, err := sqlite.Open(filepath.Join(s.T().TempDir(), "index.db"), store.Create, store.None, sqlite.Options{})
	s.Require().NoError(err)
	s.conn = c
	s.impl = New()
	s.Require().NoError(s.impl.CreateTables(c))
}

func (s *InterfaceSuite) TearDownTest() {
	s.conn.Close()
}

func toolManifest(version string) *manifest.Manifest {
	return &manifest.Manifest{
		ID:       "Contoso.Tool",
		Name:     "Contoso Tool",
		Version:  version,
		Moniker:  "ctool",
		Tags:     []string{"cli", "dev"},
		Commands: []string{"ctool"},
	}
}

func (s *InterfaceSuite) packageRow(id string) schema.RowID {
	res, err := s.impl.Search(s.conn, schema.SearchRequest{
		Inclusions: []schema.PackageMatchFilter{{Field: schema.FieldID, Type: schema.MatchExact, Value: id}},
	})
	s.Require().NoError(err)
	s.Require().Len(res.Matches, 1)
	return res.Matches[0].ID
}

func (s *InterfaceSuite) count(table string) int {
	var n int
	s.Require().NoError(s.conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n))
	return n
}

func (s *InterfaceSuite) TestVersion() {
	s.Equal(schema.Version{Major: 1, Minor: 0}, s.impl.Version())
}

func (s *InterfaceSuite) TestAddAndLookup() {
	s.Require().NoError(s.impl.AddManifest(s.conn, toolManifest("1.0"), `manifests\c\Contoso\Tool\1.0.yaml`))
	id := s.packageRow("Contoso.Tool")

	got, ok, err := s.impl.GetIDStringByID(s.conn, id)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Contoso.Tool", got)

	got, ok, err = s.impl.GetNameStringByID(s.conn, id)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Contoso Tool", got)

	got, ok, err = s.impl.GetPathStringByKey(s.conn, id, "1.0", "")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("manifests/c/Contoso/Tool/1.0.yaml", got)

	_, ok, err = s.impl.GetPathStringByKey(s.conn, id, "9.9", "")
	s.Require().NoError(err)
	s.False(ok)

	_, ok, err = s.impl.GetIDStringByID(s.conn, id+100)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *InterfaceSuite) TestAddDuplicateFails() {
	s.Require().NoError(s.impl.AddManifest(s.conn, toolManifest("1.0"), "a.yaml"))
	err := s.impl.AddManifest(s.conn, toolManifest("1.0"), "b.yaml")
	s.Require().Error(err)
	s.True(errors.Is(err, schema.ErrManifestExists))

	// Same id and version on another channel is a distinct manifest.
	beta := toolManifest("1.0")
	beta.Channel = "beta"
	s.NoError(s.impl.AddManifest(s.conn, beta, "c.yaml"))
}

func (s *InterfaceSuite) TestVersionsNewestFirst() {
	for _, v := range []string{"1.2", "1.10", "1.9"} {
		s.Require().NoError(s.impl.AddManifest(s.conn, toolManifest(v), v+".yaml"))
	}
	newest := toolManifest("1.10")
	newest.Name = "Contoso Tool X"
	_, err := s.impl.UpdateManifest(s.conn, newest, "1.10.yaml")
	s.Require().NoError(err)

	id := s.packageRow("Contoso.Tool")
	versions, err := s.impl.GetVersionsByID(s.conn, id)
	s.Require().NoError(err)
	s.Equal([]manifest.VersionAndChannel{{Version: "1.10"}, {Version: "1.9"}, {Version: "1.2"}}, versions)

	name, ok, err := s.impl.GetNameStringByID(s.conn, id)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Contoso Tool X", name)
}

func (s *InterfaceSuite) TestUpdate() {
	found, err := s.impl.UpdateManifest(s.conn, toolManifest("1.0"), "a.yaml")
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(s.impl.AddManifest(s.conn, toolManifest("1.0"), "a.yaml"))

	updated := toolManifest("1.0")
	updated.Tags = []string{"cli", "utility"}
	found, err = s.impl.UpdateManifest(s.conn, updated, "b.yaml")
	s.Require().NoError(err)
	s.True(found)

	id := s.packageRow("Contoso.Tool")
	p, _, err := s.impl.GetPathStringByKey(s.conn, id, "1.0", "")
	s.Require().NoError(err)
	s.Equal("b.yaml", p)

	// The old path and the dropped tag are no longer interned.
	s.Equal(1, s.count("paths"))
	s.Equal(2, s.count("tags"))

	res, err := s.impl.Search(s.conn, schema.SearchRequest{
		Inclusions: []schema.PackageMatchFilter{{Field: schema.FieldTag, Type: schema.MatchExact, Value: "dev"}},
	})
	s.Require().NoError(err)
	s.Empty(res.Matches)
}

func (s *InterfaceSuite) TestRemove() {
	s.Require().NoError(s.impl.AddManifest(s.conn, toolManifest("1.0"), "a.yaml"))
	s.Require().NoError(s.impl.AddManifest(s.conn, toolManifest("2.0"), "b.yaml"))

	s.Require().NoError(s.impl.RemoveManifest(s.conn, toolManifest("1.0"), "a.yaml"))
	id := s.packageRow("Contoso.Tool")
	versions, err := s.impl.GetVersionsByID(s.conn, id)
	s.Require().NoError(err)
	s.Equal([]manifest.VersionAndChannel{{Version: "2.0"}}, versions)

	s.Require().NoError(s.impl.RemoveManifest(s.conn, toolManifest("2.0"), "b.yaml"))
	for _, table := range []string{"manifest", "ids", "names", "monikers", "versions", "channels", "paths", "tags", "tags_map", "commands", "commands_map"} {
		s.Equal(0, s.count(table), table)
	}

	err = s.impl.RemoveManifest(s.conn, toolManifest("2.0"), "b.yaml")
	s.Require().Error(err)
	s.True(errors.Is(err, schema.ErrManifestNotFound))
}

func (s *InterfaceSuite) TestPrepareForPackaging() {
	s.Require().NoError(s.impl.AddManifest(s.conn, toolManifest("1.0"), "a.yaml"))
	s.NoError(s.impl.PrepareForPackaging(s.conn))
	s.Equal(1, s.count("manifest"))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "a/b/c.yaml", normalizePath(`a\b\\c.yaml`))
	assert.Equal(t, "a/c.yaml", normalizePath("a/./b/../c.yaml"))
	assert.Equal(t, "", normalizePath(""))
}

func TestExtendAddsMapTables(t *testing.T) {
	extra := MapTable{Name: "things", Column: "thing", Field: schema.FieldProductCode,
		Values: func(m *manifest.Manifest) []string { return m.ProductCodes() }}
	impl := Extend(schema.Version{Major: 1, Minor: 9}, extra)

	assert.Equal(t, schema.Version{Major: 1, Minor: 9}, impl.Version())
	got, ok := impl.mapFor(schema.FieldProductCode)
	require.True(t, ok)
	assert.Equal(t, "things_map", got.MapName())
	assert.Contains(t, impl.searchableFields(), schema.FieldProductCode)

	_, ok = New().mapFor(schema.FieldProductCode)
	assert.False(t, ok)
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/maloquacious/pkgindex/internal/index"
	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    schema.VersionRequest
		wantErr bool
	}{
		{in: "", want: schema.Latest()},
		{in: "latest", want: schema.Latest()},
		{in: "LATEST", want: schema.Latest()},
		{in: "1.0", want: schema.Concrete(1, 0)},
		{in: "1.1", want: schema.Concrete(1, 1)},
		{in: "1", wantErr: true},
		{in: "one.two", wantErr: true},
		{in: "-1.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSchemaVersion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelativePath(t *testing.T) {
	root := filepath.Join("srv", "manifests")

	got, err := relativePath("", filepath.Join("a", "b", "tool.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "tool.yaml", got)

	got, err = relativePath(root, filepath.Join(root, "c", "Contoso.Tool", "1.0.0.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "c/Contoso.Tool/1.0.0.yaml", got)

	_, err = relativePath(root, filepath.Join("srv", "other", "tool.yaml"))
	assert.Error(t, err)
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"Id=Contoso.Tool", "tag=cli=dev"}, schema.MatchExact)
	require.NoError(t, err)
	assert.Equal(t, []schema.PackageMatchFilter{
		{Field: schema.FieldID, Type: schema.MatchExact, Value: "Contoso.Tool"},
		{Field: schema.FieldTag, Type: schema.MatchExact, Value: "cli=dev"},
	}, got)

	_, err = parseFilters([]string{"Id"}, schema.MatchExact)
	assert.Error(t, err)
	_, err = parseFilters([]string{"Publisher=x"}, schema.MatchExact)
	assert.Error(t, err)
}

func TestPrintMatches(t *testing.T) {
	idx, err := index.CreateNew(filepath.Join(t.TempDir(), "index.db"), schema.Latest())
	require.NoError(t, err)
	defer idx.Close()

	for _, v := range []string{"1.0.0", "2.0.0"} {
		require.NoError(t, idx.AddManifest(&manifest.Manifest{ID: "Contoso.Tool", Name: "Contoso Tool", Version: v}, v+".yaml"))
	}
	require.NoError(t, idx.AddManifest(&manifest.Manifest{ID: "Fabrikam.Editor", Name: "Fabrikam Editor", Version: "3.1"}, "editor.yaml"))

	res, err := idx.Search(schema.SearchRequest{MaximumResults: 1})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printMatches(&out, idx, res))
	assert.Contains(t, out.String(), "Contoso.Tool")
	assert.Contains(t, out.String(), "2.0.0")
	assert.NotContains(t, out.String(), "Fabrikam.Editor")
	assert.Contains(t, out.String(), "(results truncated)")
}

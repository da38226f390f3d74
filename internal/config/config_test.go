package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite runs each test from an empty working directory.
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	require.NoError(suite.T(), os.Chdir(suite.tempDir))
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadDefaults() {
	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), DefaultIndexPath, cfg.Index.Path)
	assert.Equal(suite.T(), 5*time.Second, cfg.Index.BusyTimeout)
	assert.Equal(suite.T(), 30*time.Second, cfg.Index.LockTimeout)
	assert.Equal(suite.T(), 4, cfg.Index.Workers)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
	assert.Equal(suite.T(), "console", cfg.Log.Format)
	assert.Equal(suite.T(), 0, cfg.Search.MaxResults)
	assert.Equal(suite.T(), "", cfg.Metrics.File)
}

func (suite *ConfigTestSuite) TestLoadFromWorkingDirectory() {
	content := `
index:
  path: "/srv/index/source.db"
  busyTimeout: 250ms
log:
  level: debug
  format: json
search:
  maxResults: 50
metrics:
  file: /var/lib/node_exporter/pkgindex.prom
`
	require.NoError(suite.T(), os.WriteFile(filepath.Join(suite.tempDir, "pkgindex.yaml"), []byte(content), 0644))

	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "/srv/index/source.db", cfg.Index.Path)
	assert.Equal(suite.T(), 250*time.Millisecond, cfg.Index.BusyTimeout)
	assert.Equal(suite.T(), "debug", cfg.Log.Level)
	assert.Equal(suite.T(), "json", cfg.Log.Format)
	assert.Equal(suite.T(), 50, cfg.Search.MaxResults)
	assert.Equal(suite.T(), "/var/lib/node_exporter/pkgindex.prom", cfg.Metrics.File)
	// Unset keys keep their defaults.
	assert.Equal(suite.T(), 30*time.Second, cfg.Index.LockTimeout)
}

func (suite *ConfigTestSuite) TestLoadExplicitPath() {
	path := filepath.Join(suite.tempDir, "custom.yaml")
	require.NoError(suite.T(), os.WriteFile(path, []byte("index:\n  path: custom.db\n"), 0644))

	cfg, err := Load(path)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "custom.db", cfg.Index.Path)
}

func (suite *ConfigTestSuite) TestLoadMissingExplicitPath() {
	_, err := Load(filepath.Join(suite.tempDir, "nope.yaml"))
	assert.Error(suite.T(), err)
}

func (suite *ConfigTestSuite) TestEnvironmentOverrides() {
	suite.T().Setenv("PKGINDEX_INDEX_PATH", "from-env.db")
	suite.T().Setenv("PKGINDEX_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "from-env.db", cfg.Index.Path)
	assert.Equal(suite.T(), "warn", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestInvalidYAML() {
	require.NoError(suite.T(), os.WriteFile(filepath.Join(suite.tempDir, "pkgindex.yaml"), []byte("index: [unterminated\n"), 0644))
	_, err := Load("")
	assert.Error(suite.T(), err)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maloquacious/pkgindex/internal/config"
	"github.com/maloquacious/pkgindex/internal/index"
	"github.com/maloquacious/pkgindex/internal/logger"
	"github.com/maloquacious/pkgindex/internal/metrics"
	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/store"
	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"
)

var (
	version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}
)

var (
	configFile  string
	indexPath   string
	logLevel    string
	metricsFile string

	cfg *config.Config
	log = logger.Default
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "pkgindex",
		Short:             "Build and query local package manifest indexes",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./pkgindex.yaml)")
	rootCmd.PersistentFlags().StringVar(&indexPath, "index", "", "index file (overrides index.path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides log.level)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit (overrides metrics.file)")

	rootCmd.AddCommand(
		newCreateCmd(),
		newAddCmd(),
		newUpdateCmd(),
		newRemoveCmd(),
		newSearchCmd(),
		newVersionsCmd(),
		newInfoCmd(),
		newPackageCmd(),
		newURICmd(),
		newVersionCmd(),
	)

	err := rootCmd.Execute()
	if cfg != nil && cfg.Metrics.File != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.File); werr != nil {
			log.Error("Failed to write metrics to %s: %v", cfg.Metrics.File, werr)
		}
	}
	if err != nil {
		if index.IsUnsupported(err) {
			fmt.Fprintln(os.Stderr, "hint: this index was written by a newer pkgindex")
		}
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies flag overrides before any command runs.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile)
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		return err
	}
	if indexPath != "" {
		c.Index.Path = indexPath
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if metricsFile != "" {
		c.Metrics.File = metricsFile
	}
	cfg = c
	log = logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	return nil
}

func indexOptions() []index.Option {
	return []index.Option{
		index.WithLogger(log),
		index.WithBusyTimeout(cfg.Index.BusyTimeout),
	}
}

// withWriter opens the index for writing under the advisory writer lock.
func withWriter(fn func(idx *index.Index) error) error {
	release, err := store.AcquireWriterLock(cfg.Index.Path, cfg.Index.LockTimeout)
	if err != nil {
		return err
	}
	defer release()

	idx, err := index.Open(cfg.Index.Path, index.ReadWrite, indexOptions()...)
	if err != nil {
		return err
	}
	defer idx.Close()
	return fn(idx)
}

func withReader(disposition index.Disposition, fn func(idx *index.Index) error) error {
	idx, err := index.Open(cfg.Index.Path, disposition, indexOptions()...)
	if err != nil {
		return err
	}
	defer idx.Close()
	return fn(idx)
}

// parseSchemaVersion accepts "latest" or "major.minor".
func parseSchemaVersion(s string) (schema.VersionRequest, error) {
	if s == "" || strings.EqualFold(s, "latest") {
		return schema.Latest(), nil
	}
	var major, minor int
	if n, err := fmt.Sscanf(s, "%d.%d", &major, &minor); err != nil || n != 2 {
		return schema.VersionRequest{}, fmt.Errorf("invalid schema version %q: want latest or major.minor", s)
	}
	if major < 0 || minor < 0 {
		return schema.VersionRequest{}, fmt.Errorf("invalid schema version %q", s)
	}
	return schema.Concrete(major, minor), nil
}

// relativePath is the path a manifest is recorded under: relative to root
// when given, otherwise its base name.
func relativePath(root, file string) (string, error) {
	if root == "" {
		return filepath.Base(file), nil
	}
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside of %s", file, root)
	}
	return filepath.ToSlash(rel), nil
}

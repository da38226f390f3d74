// Package manifest reads package manifest documents into Manifest records.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest is returned when a manifest document lacks a required field.
var ErrInvalidManifest = errors.New("invalid manifest")

// Installer describes one installable artifact of a package version.
type Installer struct {
	Arch        string `yaml:"Arch"`
	URL         string `yaml:"Url"`
	Sha256      string `yaml:"Sha256"`
	ProductCode string `yaml:"ProductCode,omitempty"`
}

// Manifest is the identity and install metadata of one package version.
type Manifest struct {
	ID         string      `yaml:"Id"`
	Name       string      `yaml:"Name"`
	Publisher  string      `yaml:"Publisher,omitempty"`
	Version    string      `yaml:"Version"`
	Channel    string      `yaml:"Channel,omitempty"`
	Moniker    string      `yaml:"Moniker,omitempty"`
	Tags       []string    `yaml:"Tags,omitempty"`
	Commands   []string    `yaml:"Commands,omitempty"`
	Installers []Installer `yaml:"Installers,omitempty"`
}

// ProductCodes returns the distinct, non-empty installer product codes in order.
func (m *Manifest) ProductCodes() []string {
	var out []string
	seen := make(map[string]bool)
	for _, inst := range m.Installers {
		if inst.ProductCode == "" || seen[inst.ProductCode] {
			continue
		}
		seen[inst.ProductCode] = true
		out = append(out, inst.ProductCode)
	}
	return out
}

// Parse decodes a YAML manifest document.
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidManifest)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	m.ID = strings.TrimSpace(m.ID)
	m.Name = strings.TrimSpace(m.Name)
	m.Version = strings.TrimSpace(m.Version)
	m.Channel = strings.TrimSpace(m.Channel)

	switch {
	case m.ID == "":
		return nil, fmt.Errorf("%w: missing Id", ErrInvalidManifest)
	case m.Name == "":
		return nil, fmt.Errorf("%w: missing Name", ErrInvalidManifest)
	case m.Version == "":
		return nil, fmt.Errorf("%w: missing Version", ErrInvalidManifest)
	}
	return &m, nil
}

// ParseFile reads and decodes the manifest at path.
func ParseFile(fs afero.Fs, path string) (*Manifest, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}
	m, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parsed pairs a manifest with the path it was read from.
type Parsed struct {
	Path     string
	Manifest *Manifest
}

// ParseFiles decodes many manifests concurrently using at most workers
// goroutines. Results are returned in the order of paths. Any failure fails
// the whole call.
func ParseFiles(fs afero.Fs, paths []string, workers int) ([]Parsed, error) {
	if workers <= 0 {
		workers = 1
	}
	p := pool.NewWithResults[Parsed]().WithErrors().WithMaxGoroutines(workers)
	for _, path := range paths {
		p.Go(func() (Parsed, error) {
			m, err := ParseFile(fs, path)
			if err != nil {
				return Parsed{}, err
			}
			return Parsed{Path: path, Manifest: m}, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	order := make(map[string]int, len(paths))
	for i, path := range paths {
		order[path] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return order[results[i].Path] < order[results[j].Path]
	})
	return results, nil
}

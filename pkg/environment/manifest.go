package environment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"
)

// Manifest is a YAML description of a host installation, for hosts that
// cannot be queried directly.
type Manifest struct {
	SiteURL        string            `yaml:"site_url"`
	HostVersion    string            `yaml:"host_version,omitempty"`
	RuntimeVersion string            `yaml:"runtime_version,omitempty"`
	Language       string            `yaml:"language,omitempty"`
	Database       *ManifestDatabase `yaml:"database,omitempty"`
	Plugins        []Component       `yaml:"plugins,omitempty"`
	Theme          *Component        `yaml:"theme,omitempty"`
}

// ManifestDatabase points at the host's database so its version can be read.
type ManifestDatabase struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// ManifestProvider serves facts from a Manifest. The product version comes
// from the Version header of the product's main file.
type ManifestProvider struct {
	manifest    *Manifest
	productPath string
}

func NewManifestProvider(m *Manifest, productPath string) *ManifestProvider {
	return &ManifestProvider{manifest: m, productPath: productPath}
}

func (p *ManifestProvider) ProductVersion(context.Context) (string, error) {
	if p.productPath == "" {
		return "", ErrNotAvailable
	}
	return ReadFileHeader(p.productPath, "Version")
}

func (p *ManifestProvider) HostVersion(context.Context) (string, error) {
	return p.manifest.HostVersion, nil
}

func (p *ManifestProvider) Language(context.Context) (string, error) {
	return p.manifest.Language, nil
}

func (p *ManifestProvider) RuntimeVersion(context.Context) (string, error) {
	return p.manifest.RuntimeVersion, nil
}

func (p *ManifestProvider) DatabaseVersion(ctx context.Context) (string, error) {
	db := p.manifest.Database
	if db == nil {
		return "", ErrNotAvailable
	}
	return OpenAndQueryVersion(ctx, db.Driver, db.DSN)
}

func (p *ManifestProvider) Domain(context.Context) (string, error) {
	if p.manifest.SiteURL == "" {
		return "", ErrNotAvailable
	}
	u, err := url.Parse(p.manifest.SiteURL)
	if err != nil {
		return "", fmt.Errorf("parse site url: %w", err)
	}
	if u.Hostname() == "" {
		return "", errors.New("site url has no host")
	}
	return u.Hostname(), nil
}

func (p *ManifestProvider) InstalledPlugins(context.Context) ([]Component, error) {
	return p.manifest.Plugins, nil
}

func (p *ManifestProvider) ActiveTheme(context.Context) (*Component, error) {
	t := p.manifest.Theme
	if t == nil {
		return nil, ErrNotAvailable
	}
	theme := *t
	if theme.Slug == "" {
		theme.Slug = Slugify(theme.Name)
	}
	return &theme, nil
}

// Slugify lowercases s and collapses every run of characters that are not
// letters or digits into a single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

package environment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectAllFacts(t *testing.T) {
	fixture := &Fixture{Facts: Facts{
		ProductVersion:  "1.2.1",
		HostVersion:     "6.4.2",
		Language:        "en-US",
		RuntimeVersion:  "8.2.12",
		DatabaseVersion: "8.0.35",
		Domain:          "example.com",
		Plugins:         []Component{{Slug: "a/a.php", Name: "A", Version: "1"}},
		Theme:           &Component{Slug: "t", Name: "T", Version: "2"},
	}}

	facts := Collect(t.Context(), fixture, nil)
	assert.Equal(t, fixture.Facts, facts)
}

func TestCollectSubstitutesDefaults(t *testing.T) {
	boom := errors.New("boom")
	fixture := &Fixture{
		Facts: Facts{
			HostVersion: "6.4.2",
			Domain:      "example.com",
		},
		Errors: map[string]error{
			"product_version":   boom,
			"language":          boom,
			"runtime_version":   boom,
			"database_version":  boom,
			"installed_plugins": boom,
			"installed_theme":   boom,
		},
	}

	facts := Collect(t.Context(), fixture, nil)

	assert.Equal(t, DefaultProductVersion, facts.ProductVersion)
	assert.Equal(t, "6.4.2", facts.HostVersion)
	assert.Equal(t, "example.com", facts.Domain)
	assert.Empty(t, facts.Language)
	assert.Empty(t, facts.RuntimeVersion)
	assert.Empty(t, facts.DatabaseVersion)
	assert.NotNil(t, facts.Plugins)
	assert.Empty(t, facts.Plugins)
	assert.Nil(t, facts.Theme)
}

func TestCollectEmptyProductVersion(t *testing.T) {
	facts := Collect(t.Context(), &Fixture{}, nil)
	assert.Equal(t, DefaultProductVersion, facts.ProductVersion)
	assert.NotNil(t, facts.Plugins)
}

type panickingProvider struct {
	Fixture
}

func (p *panickingProvider) ActiveTheme(context.Context) (*Component, error) {
	panic("theme metadata unreadable")
}

func TestCollectRecoversPanics(t *testing.T) {
	p := &panickingProvider{Fixture: Fixture{Facts: Facts{Domain: "example.com"}}}

	var facts Facts
	require.NotPanics(t, func() {
		facts = Collect(t.Context(), p, nil)
	})
	assert.Nil(t, facts.Theme)
	assert.Equal(t, "example.com", facts.Domain)
}

func TestMultiProviderFallsThrough(t *testing.T) {
	primary := &Fixture{
		Facts:  Facts{HostVersion: "6.4.2"},
		Errors: map[string]error{"language": errors.New("unreadable")},
	}
	secondary := &Fixture{Facts: Facts{HostVersion: "ignored", Language: "fr-FR", Domain: "fallback.example"}}

	p := NewMultiProvider(primary, secondary)
	ctx := t.Context()

	v, err := p.HostVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "6.4.2", v)

	v, err = p.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", v)

	v, err = p.Domain(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fallback.example", v)

	_, err = p.RuntimeVersion(ctx)
	require.ErrorIs(t, err, ErrNotAvailable)

	_, err = p.ActiveTheme(ctx)
	require.Error(t, err)
}

func TestManifestProvider(t *testing.T) {
	m, err := LoadManifest(filepath.Join("testdata", "host.yaml"))
	require.NoError(t, err)

	p := NewManifestProvider(m, filepath.Join("testdata", "power-forms.php"))
	facts := Collect(t.Context(), p, nil)

	assert.Equal(t, "1.2.1", facts.ProductVersion)
	assert.Equal(t, "6.4.2", facts.HostVersion)
	assert.Equal(t, "8.2.12", facts.RuntimeVersion)
	assert.Equal(t, "en-US", facts.Language)
	assert.Equal(t, "shop.example.com", facts.Domain)
	assert.Empty(t, facts.DatabaseVersion)
	require.Len(t, facts.Plugins, 2)
	assert.Equal(t, Component{Slug: "akismet/akismet.php", Name: "Akismet Anti-Spam", Version: "5.3"}, facts.Plugins[0])
	require.NotNil(t, facts.Theme)
	assert.Equal(t, Component{Slug: "twenty-twenty-four", Name: "Twenty Twenty-Four", Version: "1.0"}, *facts.Theme)
}

func TestManifestDatabaseVersion(t *testing.T) {
	m := &Manifest{Database: &ManifestDatabase{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "host.db"),
	}}

	v, err := NewManifestProvider(m, "").DatabaseVersion(t.Context())
	require.NoError(t, err)
	assert.Regexp(t, `^3\.\d+\.\d+`, v)
}

func TestDatabaseVersionUnknownDriver(t *testing.T) {
	_, err := OpenAndQueryVersion(t.Context(), "oracle", "")
	require.Error(t, err)
}

func TestLoadManifestErrors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("plugins: [unclosed"), 0o600))
	_, err = LoadManifest(bad)
	require.Error(t, err)
}

func TestReadFileHeader(t *testing.T) {
	v, err := ReadFileHeader(filepath.Join("testdata", "power-forms.php"), "Version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.1", v)

	v, err = ReadFileHeader(filepath.Join("testdata", "power-forms.php"), "Plugin Name")
	require.NoError(t, err)
	assert.Equal(t, "Power Forms", v)

	_, err = ReadFileHeader(filepath.Join("testdata", "power-forms.php"), "Requires PHP")
	require.ErrorIs(t, err, ErrNotAvailable)

	_, err = ReadFileHeader(filepath.Join("testdata", "nope.php"), "Version")
	require.Error(t, err)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Twenty Twenty-Four": "twenty-twenty-four",
		"  Astra  ":          "astra",
		"Neve (Child)":       "neve-child",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSystemProviderLanguage(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LANG", "en_GB.UTF-8")

	v, err := NewSystemProvider().Language(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "en-GB", v)

	t.Setenv("LANG", "C")
	_, err = NewSystemProvider().Language(t.Context())
	require.ErrorIs(t, err, ErrNotAvailable)
}

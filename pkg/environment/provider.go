// Package environment reads the facts about the host installation that go
// into an analytics snapshot: installed components, versions, locale and
// domain.
package environment

import (
	"context"
	"errors"
)

// ErrNotAvailable is returned by accessors a provider cannot answer.
var ErrNotAvailable = errors.New("fact not available")

// Component describes an installed plugin or theme.
type Component struct {
	Slug    string `json:"slug" yaml:"slug"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// Provider exposes one accessor per host fact. Any accessor may fail; the
// caller decides what to substitute.
type Provider interface {
	ProductVersion(ctx context.Context) (string, error)
	HostVersion(ctx context.Context) (string, error)
	Language(ctx context.Context) (string, error)
	RuntimeVersion(ctx context.Context) (string, error)
	DatabaseVersion(ctx context.Context) (string, error)
	Domain(ctx context.Context) (string, error)
	InstalledPlugins(ctx context.Context) ([]Component, error)
	ActiveTheme(ctx context.Context) (*Component, error)
}

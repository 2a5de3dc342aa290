package environment

import (
	"context"
	"errors"
)

// MultiProvider asks each provider in turn and returns the first answer
// that is neither an error nor empty.
type MultiProvider struct {
	providers []Provider
}

func NewMultiProvider(providers ...Provider) *MultiProvider {
	return &MultiProvider{
		providers: providers,
	}
}

func first[T any](ctx context.Context, providers []Provider, read func(Provider, context.Context) (T, error), empty func(T) bool) (T, error) {
	var errs []error
	for _, p := range providers {
		v, err := read(p, ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !empty(v) {
			return v, nil
		}
	}

	var zero T
	if len(errs) > 0 {
		return zero, errors.Join(errs...)
	}
	return zero, ErrNotAvailable
}

func emptyString(s string) bool { return s == "" }

func (p *MultiProvider) ProductVersion(ctx context.Context) (string, error) {
	return first(ctx, p.providers, Provider.ProductVersion, emptyString)
}

func (p *MultiProvider) HostVersion(ctx context.Context) (string, error) {
	return first(ctx, p.providers, Provider.HostVersion, emptyString)
}

func (p *MultiProvider) Language(ctx context.Context) (string, error) {
	return first(ctx, p.providers, Provider.Language, emptyString)
}

func (p *MultiProvider) RuntimeVersion(ctx context.Context) (string, error) {
	return first(ctx, p.providers, Provider.RuntimeVersion, emptyString)
}

func (p *MultiProvider) DatabaseVersion(ctx context.Context) (string, error) {
	return first(ctx, p.providers, Provider.DatabaseVersion, emptyString)
}

func (p *MultiProvider) Domain(ctx context.Context) (string, error) {
	return first(ctx, p.providers, Provider.Domain, emptyString)
}

func (p *MultiProvider) InstalledPlugins(ctx context.Context) ([]Component, error) {
	return first(ctx, p.providers, Provider.InstalledPlugins, func(c []Component) bool { return len(c) == 0 })
}

func (p *MultiProvider) ActiveTheme(ctx context.Context) (*Component, error) {
	return first(ctx, p.providers, Provider.ActiveTheme, func(c *Component) bool { return c == nil })
}

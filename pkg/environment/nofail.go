package environment

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultProductVersion is reported when the product header has no version.
const DefaultProductVersion = "Not Set"

// Facts is the flattened result of reading every accessor of a Provider.
type Facts struct {
	ProductVersion  string
	HostVersion     string
	Language        string
	RuntimeVersion  string
	DatabaseVersion string
	Domain          string
	Plugins         []Component
	// Theme is nil when the active theme could not be read.
	Theme *Component
}

// Collect reads every fact from p and never fails: an accessor that returns
// an error or panics is replaced by its default ("Not Set" for the product
// version, "" for strings, an empty plugin list and a nil theme).
func Collect(ctx context.Context, p Provider, logger *slog.Logger) Facts {
	if logger == nil {
		logger = slog.Default()
	}

	f := Facts{
		ProductVersion:  noFail(ctx, logger, "product_version", DefaultProductVersion, p.ProductVersion),
		HostVersion:     noFail(ctx, logger, "host_version", "", p.HostVersion),
		Language:        noFail(ctx, logger, "language", "", p.Language),
		RuntimeVersion:  noFail(ctx, logger, "runtime_version", "", p.RuntimeVersion),
		DatabaseVersion: noFail(ctx, logger, "database_version", "", p.DatabaseVersion),
		Domain:          noFail(ctx, logger, "domain", "", p.Domain),
		Plugins:         noFail(ctx, logger, "installed_plugins", []Component{}, p.InstalledPlugins),
		Theme:           noFail[*Component](ctx, logger, "installed_theme", nil, p.ActiveTheme),
	}
	if f.ProductVersion == "" {
		f.ProductVersion = DefaultProductVersion
	}
	if f.Plugins == nil {
		f.Plugins = []Component{}
	}
	return f
}

func noFail[T any](ctx context.Context, logger *slog.Logger, name string, def T, read func(context.Context) (T, error)) (value T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("Host fact accessor panicked", "fact", name, "panic", fmt.Sprint(r))
			value = def
		}
	}()

	v, err := read(ctx)
	if err != nil {
		logger.Debug("Host fact unavailable", "fact", name, "error", err)
		return def
	}
	return v
}

package root

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wp-poweranalytics/power-analytics/pkg/analytics"
	"github.com/wp-poweranalytics/power-analytics/pkg/environment"
	"github.com/wp-poweranalytics/power-analytics/pkg/kvcache"
	"github.com/wp-poweranalytics/power-analytics/pkg/userconfig"
)

// MissingIdentityError is returned when no product uuid is configured.
type MissingIdentityError struct{}

func (*MissingIdentityError) Error() string {
	return "no product uuid: pass --product-uuid or run 'power-analytics config set product.uuid <uuid>'"
}

type productFlags struct {
	uuid     string
	path     string
	slug     string
	manifest string
}

func (p *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.uuid, "product-uuid", "", "UUID of the reporting product (default: product.uuid from the config)")
	cmd.Flags().StringVar(&p.path, "product-path", "", "Absolute path of the product's main file (default: product.path from the config)")
	cmd.Flags().StringVar(&p.slug, "product-slug", "", "Slug of the reporting product")
	cmd.Flags().StringVar(&p.manifest, "manifest", "", "Host manifest describing the WordPress installation (default: manifest from the config)")
}

func (p *productFlags) identity(cfg *userconfig.Config) (analytics.Identity, error) {
	product := cfg.GetProduct()
	identity := analytics.Identity{
		ProductUUID:  cmp.Or(p.uuid, product.UUID),
		AbsolutePath: cmp.Or(p.path, product.Path),
		Slug:         cmp.Or(p.slug, product.Slug),
	}
	if identity.ProductUUID == "" {
		return identity, &MissingIdentityError{}
	}
	return identity, nil
}

// facts prefers the manifest and falls back to what the process can see.
func (p *productFlags) facts(cfg *userconfig.Config, identity analytics.Identity) (environment.Provider, error) {
	manifest := &environment.Manifest{}
	if path := cmp.Or(p.manifest, cfg.Manifest); path != "" {
		m, err := environment.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		manifest = m
	}
	return environment.NewMultiProvider(
		environment.NewManifestProvider(manifest, identity.AbsolutePath),
		environment.NewSystemProvider(),
	), nil
}

// reporter bundles a configured client with the resources it holds. The
// identity and options are kept so commands can run a scoped client too.
type reporter struct {
	client   *analytics.Client
	identity analytics.Identity
	opts     []analytics.Opt
	cache    kvcache.Cache
	registry *prometheus.Registry
}

func (r *reporter) Close() error {
	return r.cache.Close()
}

// logMetrics writes the client's counters to the debug log.
func (r *reporter) logMetrics() {
	families, err := r.registry.Gather()
	if err != nil {
		slog.Debug("Failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName(), "value", m.GetCounter().GetValue()}
			for _, l := range m.GetLabel() {
				attrs = append(attrs, l.GetName(), l.GetValue())
			}
			slog.Debug("Analytics counter", attrs...)
		}
	}
}

func (f *rootFlags) openReporter(pf *productFlags) (*reporter, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	identity, err := pf.identity(cfg)
	if err != nil {
		return nil, err
	}
	facts, err := pf.facts(cfg, identity)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	settings := cfg.CacheSettings()
	cache, err := kvcache.Open(kvcache.Config{Backend: settings.Backend, Dir: settings.Path, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", settings.Backend, err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := analytics.NewMetrics(registry)
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	routes := analytics.DefaultRoutes()
	if cfg.Routing == userconfig.RoutingSingle {
		routes = analytics.SingleEndpointRoutes()
	}

	opts := []analytics.Opt{
		analytics.WithLogger(logger),
		analytics.WithCache(cache),
		analytics.WithFacts(facts),
		analytics.WithBaseURL(cfg.EndpointURL(analytics.DefaultBaseURL)),
		analytics.WithRoutes(routes),
		analytics.WithLocation(analytics.LoadLocation(cmp.Or(cfg.Timezone, analytics.DefaultTimezone))),
		analytics.WithMetrics(metrics),
		analytics.WithEnabled(cfg.IsEnabled()),
	}
	client, err := analytics.New(identity, opts...)
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	slog.Debug("Analytics client ready", "product_uuid", identity.ProductUUID, "cache", settings.Backend, "enabled", client.IsEnabled())
	return &reporter{client: client, identity: identity, opts: opts, cache: cache, registry: registry}, nil
}

// parseEvent splits a name=value argument. A value that is valid JSON is
// decoded, anything else is kept as a string. A bare name has a null value.
func parseEvent(arg string) (string, any, error) {
	name, raw, hasValue := strings.Cut(arg, "=")
	if name == "" {
		return "", nil, fmt.Errorf("invalid event %q: name is empty", arg)
	}
	if !hasValue {
		return name, nil, nil
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return name, raw, nil
	}
	return name, value, nil
}

package analytics

import (
	"context"

	"github.com/wp-poweranalytics/power-analytics/pkg/environment"
)

// BuildSnapshot reads the host facts and assembles a snapshot. It always
// succeeds; unreadable facts are replaced by their defaults.
func (c *Client) BuildSnapshot(ctx context.Context) Snapshot {
	facts := environment.Collect(ctx, c.facts, c.logger.logger)

	return Snapshot{
		Date:             c.now().In(c.loc).Format(DateLayout),
		ProductUUID:      c.identity.ProductUUID,
		ProductType:      ClassifyProduct(c.identity.AbsolutePath),
		ProductVersion:   facts.ProductVersion,
		WordPressVersion: facts.HostVersion,
		Language:         facts.Language,
		PHPVersion:       facts.RuntimeVersion,
		MySQLVersion:     facts.DatabaseVersion,
		Domain:           facts.Domain,
		InstalledPlugins: facts.Plugins,
		InstalledTheme:   InstalledTheme{facts.Theme},
	}
}

package analytics

import (
	"os"
	"strconv"
	"strings"
	"time"
	// Embedded zone database so the default location loads on hosts without one.
	_ "time/tzdata"

	"github.com/google/uuid"
)

const (
	themesMarker  = "wp-content/themes"
	pluginsMarker = "wp-content/plugins"
)

// DefaultTimezone is the zone timestamps are recorded in unless overridden.
const DefaultTimezone = "America/New_York"

// ClassifyProduct infers the product type from its install path.
func ClassifyProduct(absolutePath string) ProductType {
	p := strings.ReplaceAll(absolutePath, `\`, "/")
	switch {
	case strings.Contains(p, themesMarker):
		return ProductTypeTheme
	case strings.Contains(p, pluginsMarker):
		return ProductTypePlugin
	default:
		return ProductTypeUnknown
	}
}

// newSessionUUID returns a random (version 4) UUID in canonical form.
func newSessionUUID() string {
	return uuid.New().String()
}

// LoadLocation resolves name, falling back to UTC when it is empty or
// unknown.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EnvEnabled names the variable hosts set to opt out of analytics.
const EnvEnabled = "POWER_ANALYTICS_ENABLED"

// ParseEnabled interprets an EnvEnabled value with strconv.ParseBool rules.
// Only a value that parses as false disables analytics; set is false when v
// is blank.
func ParseEnabled(v string) (enabled, set bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return true, false
	}
	b, err := strconv.ParseBool(v)
	return err != nil || b, true
}

// EnabledFromEnv reports whether analytics is enabled according to
// EnvEnabled.
func EnabledFromEnv() bool {
	enabled, _ := ParseEnabled(os.Getenv(EnvEnabled))
	return enabled
}

package useragent

import (
	"fmt"
	"runtime"

	"github.com/wp-poweranalytics/power-analytics/pkg/version"
)

var Header = fmt.Sprintf("PowerAnalytics/%s (%s; %s)", version.Version, runtime.GOOS, runtime.GOARCH)

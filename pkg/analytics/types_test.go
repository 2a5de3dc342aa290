package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wp-poweranalytics/power-analytics/pkg/environment"
)

func TestClassifyProduct(t *testing.T) {
	tests := []struct {
		path string
		want ProductType
	}{
		{"/var/www/html/wp-content/themes/foo/foo.php", ProductTypeTheme},
		{"/var/www/html/wp-content/plugins/bar/bar.php", ProductTypePlugin},
		{"/opt/other/x.php", ProductTypeUnknown},
		{`C:\inetpub\wp-content\plugins\bar\bar.php`, ProductTypePlugin},
		{"", ProductTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyProduct(tt.path), tt.path)
	}
}

func TestTimestampJSON(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01 07:00:00-05:00"`), &ts))
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 12, ts.UTC().Hour())

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-01 07:00:00-05:00"`, string(data))

	require.Error(t, json.Unmarshal([]byte(`"2024-03-01T07:00:00Z"`), &ts))
	require.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestInstalledThemeJSON(t *testing.T) {
	data, err := json.Marshal(InstalledTheme{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	theme := InstalledTheme{&environment.Component{Slug: "astra", Name: "Astra", Version: "4.6"}}
	data, err = json.Marshal(theme)
	require.NoError(t, err)
	assert.JSONEq(t, `{"slug":"astra","name":"Astra","version":"4.6"}`, string(data))

	var decoded InstalledTheme
	require.NoError(t, json.Unmarshal([]byte(`{}`), &decoded))
	assert.Nil(t, decoded.Component)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "tracking", StateTracking.String())
	assert.Equal(t, "finalized", StateFinalized.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, "America/New_York", LoadLocation(DefaultTimezone).String())
	assert.Equal(t, "UTC", LoadLocation("").String())
	assert.Equal(t, "UTC", LoadLocation("Mars/Olympus_Mons").String())
}

func TestParseEnabled(t *testing.T) {
	tests := []struct {
		value   string
		enabled bool
		set     bool
	}{
		{"", true, false},
		{"   ", true, false},
		{"false", false, true},
		{" FALSE ", false, true},
		{"False", false, true},
		{"f", false, true},
		{"F", false, true},
		{"0", false, true},
		{"true", true, true},
		{"t", true, true},
		{"1", true, true},
		{"no", true, true},
		{"off", true, true},
	}
	for _, tt := range tests {
		enabled, set := ParseEnabled(tt.value)
		assert.Equal(t, tt.enabled, enabled, "%q", tt.value)
		assert.Equal(t, tt.set, set, "%q", tt.value)
	}
}

package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wp-poweranalytics/power-analytics/pkg/environment"
)

// IDENTITY

// Identity names the product a Client reports for. ProductUUID partitions
// every cache entry; AbsolutePath is only used to classify the product.
type Identity struct {
	ProductUUID  string
	AbsolutePath string
	Slug         string
}

// ProductType is derived from where the product is installed.
type ProductType string

const (
	ProductTypeTheme   ProductType = "theme"
	ProductTypePlugin  ProductType = "plugin"
	ProductTypeUnknown ProductType = "unknown"
)

// TIMESTAMPS

// TimestampLayout always carries an explicit UTC offset so timestamps from
// hosts in different zones compare unambiguously.
const TimestampLayout = "2006-01-02 15:04:05-07:00"

// DateLayout is used for the snapshot date.
const DateLayout = "2006-01-02"

// Timestamp is a time serialized with TimestampLayout.
type Timestamp struct {
	time.Time
}

func (t Timestamp) String() string {
	return t.Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// STATE

// State is the lifecycle stage of a Client.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateTracking
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateTracking:
		return "tracking"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SESSION

// Session groups the events of one usage period. It is stored in the cache
// as {"uuid": ..., "sessionStartTime": ...}.
type Session struct {
	UUID      string    `json:"uuid"`
	StartTime Timestamp `json:"sessionStartTime"`
}

// EVENTS

// Event is one tracked occurrence. Value is passed through untouched.
type Event struct {
	Name    string    `json:"name"`
	Value   any       `json:"value"`
	Created Timestamp `json:"created"`
}

// PAYLOADS

// Snapshot describes the host installation.
type Snapshot struct {
	Date             string                  `json:"date"`
	ProductUUID      string                  `json:"product_uuid"`
	ProductType      ProductType             `json:"product_type"`
	ProductVersion   string                  `json:"product_version"`
	WordPressVersion string                  `json:"wordpress_version"`
	Language         string                  `json:"language"`
	PHPVersion       string                  `json:"php_version"`
	MySQLVersion     string                  `json:"mysql_version"`
	Domain           string                  `json:"domain"`
	InstalledPlugins []environment.Component `json:"installed_plugins"`
	InstalledTheme   InstalledTheme          `json:"installed_theme"`
}

// InstalledTheme serializes as {} when no theme could be read.
type InstalledTheme struct {
	*environment.Component
}

func (t InstalledTheme) MarshalJSON() ([]byte, error) {
	if t.Component == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.Component)
}

func (t *InstalledTheme) UnmarshalJSON(data []byte) error {
	var c environment.Component
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	if c == (environment.Component{}) {
		t.Component = nil
		return nil
	}
	t.Component = &c
	return nil
}

// SessionRef identifies the session an EventBatch belongs to.
type SessionRef struct {
	UUID  string    `json:"uuid"`
	Start Timestamp `json:"start"`
}

// EventBatch is posted once, when the Client is closed.
type EventBatch struct {
	Session     SessionRef `json:"session"`
	ProductUUID string     `json:"product_uuid"`
	Events      []Event    `json:"events"`
}

package analytics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wp-poweranalytics/power-analytics/pkg/environment"
	"github.com/wp-poweranalytics/power-analytics/pkg/kvcache"
)

const testProductUUID = "3f2b6c1e-8d4a-4b7e-9c1d-2a5e6f7a8b9c"

// MockHTTPClient captures HTTP requests for testing
type MockHTTPClient struct {
	*http.Client
	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
	status   int
	err      error
}

// NewMockHTTPClient creates a new mock HTTP client with a default success response
func NewMockHTTPClient() *MockHTTPClient {
	mock := &MockHTTPClient{status: http.StatusOK}
	mock.Client = &http.Client{Transport: mock}
	return mock
}

// SetStatus changes the status code returned for subsequent requests
func (m *MockHTTPClient) SetStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// SetError makes subsequent requests fail at the transport level
func (m *MockHTTPClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// RoundTrip implements http.RoundTripper and captures the request
func (m *MockHTTPClient) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		m.bodies = append(m.bodies, body)
		req.Body = io.NopCloser(bytes.NewReader(body))
	} else {
		m.bodies = append(m.bodies, nil)
	}

	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.status,
		Status:     http.StatusText(m.status),
		Body:       io.NopCloser(bytes.NewReader([]byte(`{"success": true}`))),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// GetRequests returns all captured requests
func (m *MockHTTPClient) GetRequests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request{}, m.requests...)
}

// GetBodies returns all captured request bodies
func (m *MockHTTPClient) GetBodies() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte{}, m.bodies...)
}

// GetRequestCount returns the number of HTTP requests made
func (m *MockHTTPClient) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock(start time.Time, step time.Duration) *fakeClock {
	return &fakeClock{now: start, step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingCache fails every operation.
type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache unavailable")
}

func (failingCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("cache unavailable")
}

func (failingCache) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testFacts() *environment.Fixture {
	return &environment.Fixture{Facts: environment.Facts{
		ProductVersion:  "1.2.1",
		HostVersion:     "6.4.2",
		Language:        "en-US",
		RuntimeVersion:  "8.2.12",
		DatabaseVersion: "8.0.35",
		Domain:          "example.com",
		Plugins: []environment.Component{
			{Slug: "akismet/akismet.php", Name: "Akismet Anti-Spam", Version: "5.3"},
		},
		Theme: &environment.Component{Slug: "twentytwentyfour", Name: "Twenty Twenty-Four", Version: "1.0"},
	}}
}

func testIdentity() Identity {
	return Identity{
		ProductUUID:  testProductUUID,
		AbsolutePath: "/var/www/html/wp-content/plugins/power-forms/power-forms.php",
		Slug:         "power-forms",
	}
}

type testEnv struct {
	http  *MockHTTPClient
	cache *kvcache.Memory
	clock *fakeClock
}

func newTestEnv() *testEnv {
	return &testEnv{
		http:  NewMockHTTPClient(),
		cache: kvcache.NewMemory(),
		clock: newFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.Second),
	}
}

func (e *testEnv) options(extra ...Opt) []Opt {
	return append([]Opt{
		WithLogger(testLogger()),
		WithHTTPClient(e.http.Client),
		WithCache(e.cache),
		WithFacts(testFacts()),
		WithClock(e.clock.Now),
		WithEnabled(true),
	}, extra...)
}

func (e *testEnv) newClient(t *testing.T, extra ...Opt) *Client {
	t.Helper()
	c, err := New(testIdentity(), e.options(extra...)...)
	require.NoError(t, err)
	return c
}

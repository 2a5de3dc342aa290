package analytics

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/wp-poweranalytics/power-analytics/pkg/httpclient"
)

func TestRoutes(t *testing.T) {
	logger := newAnalyticsLogger(testLogger())

	tests := []struct {
		name      string
		base      string
		routes    Routes
		snapshot  string
		eventsURL string
	}{
		{
			name:      "split endpoints",
			base:      DefaultBaseURL,
			routes:    DefaultRoutes(),
			snapshot:  "https://wp-poweranalytics.com/ingest/v1",
			eventsURL: "https://wp-poweranalytics.com/ingest/v1/events",
		},
		{
			name:      "single endpoint",
			base:      DefaultBaseURL,
			routes:    SingleEndpointRoutes(),
			snapshot:  "https://wp-poweranalytics.com/",
			eventsURL: "https://wp-poweranalytics.com/",
		},
		{
			name:      "base without trailing slash",
			base:      "https://collector.example.com/analytics",
			routes:    Routes{Snapshot: "/snapshot", Events: "events"},
			snapshot:  "https://collector.example.com/analytics/snapshot",
			eventsURL: "https://collector.example.com/analytics/events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDispatcher(tt.base, tt.routes, http.DefaultClient, logger, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.snapshot, d.URL(KindSnapshot))
			assert.Equal(t, tt.eventsURL, d.URL(KindEvents))
		})
	}
}

func TestDispatcherPostsJSON(t *testing.T) {
	var (
		mu      sync.Mutex
		paths   []string
		bodies  []string
		ctypes  []string
		agents  []string
		methods []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, string(body))
		ctypes = append(ctypes, r.Header.Get("Content-Type"))
		agents = append(agents, r.Header.Get("User-Agent"))
		methods = append(methods, r.Method)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d, err := NewDispatcher(srv.URL, DefaultRoutes(), httpclient.NewHTTPClient(), newAnalyticsLogger(testLogger()), nil)
	require.NoError(t, err)

	d.Send(t.Context(), KindEvents, map[string]any{"product_uuid": testProductUUID})
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 1)
	assert.Equal(t, "/ingest/v1/events", paths[0])
	assert.Equal(t, http.MethodPost, methods[0])
	assert.Equal(t, "application/json", ctypes[0])
	assert.Contains(t, agents[0], "PowerAnalytics/")
	assert.JSONEq(t, `{"product_uuid":"`+testProductUUID+`"}`, bodies[0])
}

func TestDispatcherSendDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	d, err := NewDispatcher(srv.URL, DefaultRoutes(), httpclient.NewHTTPClient(), newAnalyticsLogger(testLogger()), nil)
	require.NoError(t, err)

	start := time.Now()
	d.Send(t.Context(), KindSnapshot, Snapshot{})
	assert.Less(t, time.Since(start), time.Second, "Send must return before the response arrives")
}

func TestDispatcherMetrics(t *testing.T) {
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	mock := NewMockHTTPClient()
	d, err := NewDispatcher(DefaultBaseURL, DefaultRoutes(), mock.Client, newAnalyticsLogger(testLogger()), metrics)
	require.NoError(t, err)
	ctx := t.Context()

	d.Send(ctx, KindSnapshot, Snapshot{})
	d.Wait()
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.dispatched.WithLabelValues("snapshot", resultSent)), 0)

	mock.SetStatus(http.StatusInternalServerError)
	d.Send(ctx, KindEvents, EventBatch{})
	d.Wait()
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.dispatched.WithLabelValues("events", resultRejected)), 0)

	mock.SetError(errors.New("dial tcp: connection refused"))
	d.Send(ctx, KindEvents, EventBatch{})
	d.Wait()
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.dispatched.WithLabelValues("events", resultFailed)), 0)

	d.Send(ctx, KindEvents, map[string]any{"bad": func() {}})
	d.Wait()
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.dispatched.WithLabelValues("events", resultFailed)), 0)
	assert.Equal(t, 3, mock.GetRequestCount(), "unmarshalable payloads are never sent")
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.track()
	second.track()
	assert.InDelta(t, 2, testutil.ToFloat64(first.tracked), 0)

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.track()
		nilMetrics.skip()
		nilMetrics.dispatch(KindEvents, resultSent)
	})
}

func TestClientMetrics(t *testing.T) {
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	env := newTestEnv()
	ctx := t.Context()
	for range 2 {
		c := env.newClient(t, WithMetrics(metrics))
		c.Initialize(ctx)
		c.Track("a", 1)
		c.Close(ctx)
		c.Wait()
	}

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.skipped), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.tracked), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.dispatched.WithLabelValues("events", resultSent)), 0)
}

func TestSnapshotPayloadGolden(t *testing.T) {
	env := newTestEnv()
	client := env.newClient(t)

	data, err := json.MarshalIndent(client.BuildSnapshot(t.Context()), "", "  ")
	require.NoError(t, err)

	golden.Assert(t, string(data)+"\n", "snapshot.golden")
}

func TestSingleEndpointClient(t *testing.T) {
	env := newTestEnv()
	client := env.newClient(t, WithRoutes(SingleEndpointRoutes()), WithBaseURL("https://collector.example.com"))
	ctx := t.Context()

	client.Initialize(ctx)
	client.Track("a", 1)
	client.Close(ctx)
	client.Wait()

	requests := env.http.GetRequests()
	require.Len(t, requests, 2)
	for _, req := range requests {
		assert.Equal(t, "https://collector.example.com/", req.URL.String())
	}
}

func TestNewDispatcherRejectsRelativeURL(t *testing.T) {
	for _, base := range []string{"", "ingest", "/ingest/v1", "://bad"} {
		_, err := NewDispatcher(base, DefaultRoutes(), http.DefaultClient, newAnalyticsLogger(testLogger()), nil)
		assert.Error(t, err, base)
	}
}

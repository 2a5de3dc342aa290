package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the ingestion host.
	DefaultBaseURL = "https://wp-poweranalytics.com/"
	// SendTimeout bounds each request independently of the HTTP client.
	SendTimeout = 5 * time.Second

	tracerName = "github.com/wp-poweranalytics/power-analytics/pkg/analytics"
)

// PayloadKind selects the route a payload is posted to.
type PayloadKind string

const (
	KindSnapshot PayloadKind = "snapshot"
	KindEvents   PayloadKind = "events"
)

// Routes maps each payload kind to a path relative to the base URL. An
// empty path posts to the base URL itself.
type Routes struct {
	Snapshot string `yaml:"snapshot" json:"snapshot"`
	Events   string `yaml:"events" json:"events"`
}

// DefaultRoutes posts snapshots and event batches to separate paths.
func DefaultRoutes() Routes {
	return Routes{Snapshot: "ingest/v1", Events: "ingest/v1/events"}
}

// SingleEndpointRoutes posts both payload kinds to the base URL.
func SingleEndpointRoutes() Routes {
	return Routes{}
}

func (r Routes) path(kind PayloadKind) string {
	switch kind {
	case KindEvents:
		return r.Events
	default:
		return r.Snapshot
	}
}

// HTTPClient interface for making HTTP requests (allows mocking in tests)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher posts JSON payloads in the background. Callers never see the
// outcome; it is only logged, traced and counted.
type Dispatcher struct {
	base       *url.URL
	routes     Routes
	httpClient HTTPClient
	logger     *analyticsLogger
	metrics    *Metrics
	tracer     trace.Tracer
	wg         sync.WaitGroup
}

func NewDispatcher(baseURL string, routes Routes, httpClient HTTPClient, logger *analyticsLogger, metrics *Metrics) (*Dispatcher, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ingestion url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ingestion url %q: scheme and host are required", baseURL)
	}

	return &Dispatcher{
		base:       base,
		routes:     routes,
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// URL returns the endpoint a payload of the given kind is posted to.
func (d *Dispatcher) URL(kind PayloadKind) string {
	p := strings.TrimPrefix(d.routes.path(kind), "/")
	return d.base.ResolveReference(&url.URL{Path: p}).String()
}

// Send serializes payload now and posts it in the background. It returns
// as soon as the request has been handed off.
func (d *Dispatcher) Send(ctx context.Context, kind PayloadKind, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Debug("Failed to marshal payload", "kind", kind, "error", err)
		d.metrics.dispatch(kind, resultFailed)
		return
	}

	endpoint := d.URL(kind)
	ctx = context.WithoutCancel(ctx)

	d.wg.Go(func() {
		d.post(ctx, kind, endpoint, body)
	})
}

// Wait blocks until every in-flight send has finished. Each send is bounded
// by SendTimeout.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) post(ctx context.Context, kind PayloadKind, endpoint string, body []byte) {
	ctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "analytics.dispatch", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("analytics.kind", string(kind)),
		attribute.String("http.url", endpoint),
		attribute.Int("analytics.payload_size", len(body)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		d.logger.Debug("Failed to create HTTP request", "kind", kind, "error", err)
		span.SetStatus(codes.Error, err.Error())
		d.metrics.dispatch(kind, resultFailed)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	if d.logger.Enabled(ctx, slog.LevelDebug) {
		d.logger.Debug("Sending payload", "kind", kind, "url", endpoint, "size", units.HumanSize(float64(len(body))), "payload", string(body))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		// Offline or firewalled hosts are expected; not worth more than debug.
		d.logger.Debug("Failed to send payload", "kind", kind, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		d.metrics.dispatch(kind, resultFailed)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.logger.Debug("Ingestion endpoint rejected payload", "kind", kind, "status_code", resp.StatusCode)
		span.SetStatus(codes.Error, resp.Status)
		d.metrics.dispatch(kind, resultRejected)
		return
	}

	d.logger.Debug("Payload sent", "kind", kind, "status_code", resp.StatusCode)
	d.metrics.dispatch(kind, resultSent)
}

package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wp-poweranalytics/power-analytics/pkg/environment"
	"github.com/wp-poweranalytics/power-analytics/pkg/httpclient"
	"github.com/wp-poweranalytics/power-analytics/pkg/kvcache"
)

// DefaultNamespace prefixes every cache key written by the client.
const DefaultNamespace = "wp-power-analytics"

type options struct {
	logger     *slog.Logger
	cache      kvcache.Cache
	facts      environment.Provider
	httpClient HTTPClient
	baseURL    string
	routes     Routes
	namespace  string
	now        func() time.Time
	loc        *time.Location
	metrics    *Metrics
	enabled    *bool
}

type Opt func(*options)

func WithLogger(logger *slog.Logger) Opt {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCache sets the store for dedup flags and sessions. Without it the
// client uses a process-local memory cache.
func WithCache(cache kvcache.Cache) Opt {
	return func(o *options) {
		o.cache = cache
	}
}

// WithFacts sets where snapshot facts are read from.
func WithFacts(p environment.Provider) Opt {
	return func(o *options) {
		o.facts = p
	}
}

func WithHTTPClient(c HTTPClient) Opt {
	return func(o *options) {
		o.httpClient = c
	}
}

func WithBaseURL(u string) Opt {
	return func(o *options) {
		o.baseURL = u
	}
}

func WithRoutes(r Routes) Opt {
	return func(o *options) {
		o.routes = r
	}
}

func WithNamespace(ns string) Opt {
	return func(o *options) {
		o.namespace = ns
	}
}

func WithClock(now func() time.Time) Opt {
	return func(o *options) {
		o.now = now
	}
}

// WithLocation sets the zone timestamps are recorded in.
func WithLocation(loc *time.Location) Opt {
	return func(o *options) {
		o.loc = loc
	}
}

func WithMetrics(m *Metrics) Opt {
	return func(o *options) {
		o.metrics = m
	}
}

// WithEnabled overrides POWER_ANALYTICS_ENABLED.
func WithEnabled(enabled bool) Opt {
	return func(o *options) {
		o.enabled = &enabled
	}
}

// Client is the only entry point a host needs. Construct it with New, call
// Initialize once per process, Track any number of times and Close when the
// process is done; Scope does all of that around a function.
type Client struct {
	identity Identity
	logger   *analyticsLogger
	enabled  bool
	facts    environment.Provider
	now      func() time.Time
	loc      *time.Location
	metrics  *Metrics

	gate       *DedupGate
	sessions   *SessionManager
	dispatcher *Dispatcher

	mu      sync.Mutex
	state   State
	session *Session
	buffer  *EventBuffer
}

// New builds a client for identity. It performs no I/O.
func New(identity Identity, opts ...Opt) (*Client, error) {
	if identity.ProductUUID == "" {
		return nil, errors.New("product uuid is required")
	}

	o := options{
		baseURL:   DefaultBaseURL,
		routes:    DefaultRoutes(),
		namespace: DefaultNamespace,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := newAnalyticsLogger(o.logger)
	if o.cache == nil {
		o.cache = kvcache.NewMemory()
	}
	if o.facts == nil {
		o.facts = environment.NewSystemProvider()
	}
	if o.httpClient == nil {
		o.httpClient = httpclient.NewHTTPClient()
	}
	if o.loc == nil {
		o.loc = LoadLocation(DefaultTimezone)
	}
	enabled := EnabledFromEnv()
	if o.enabled != nil {
		enabled = *o.enabled
	}

	dispatcher, err := NewDispatcher(o.baseURL, o.routes, o.httpClient, logger, o.metrics)
	if err != nil {
		return nil, err
	}

	c := &Client{
		identity:   identity,
		logger:     logger,
		enabled:    enabled,
		facts:      o.facts,
		now:        o.now,
		loc:        o.loc,
		metrics:    o.metrics,
		gate:       NewDedupGate(o.cache, o.namespace, logger),
		sessions:   NewSessionManager(o.cache, o.namespace, o.now, o.loc, logger),
		dispatcher: dispatcher,
		buffer:     NewEventBuffer(o.now, o.loc),
	}

	logger.Debug("Client created", "product_uuid", identity.ProductUUID, "enabled", enabled)
	return c, nil
}

// IsEnabled reports whether the client talks to the cache and network.
func (c *Client) IsEnabled() bool {
	return c.enabled
}

func (c *Client) Identity() Identity {
	return c.identity
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the session resolved by Initialize or Close.
func (c *Client) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Initialize sends a snapshot if none was sent for this product in the
// current window, then resolves the session. Calling it again repeats both
// steps, which at worst refreshes the stored session.
func (c *Client) Initialize(ctx context.Context) {
	if !c.enabled {
		return
	}

	if c.gate.ShouldSendSnapshot(ctx, c.identity.ProductUUID) {
		snapshot := c.BuildSnapshot(ctx)
		c.dispatcher.Send(ctx, KindSnapshot, snapshot)
	} else {
		c.logger.Debug("Snapshot already sent in current window", "product_uuid", c.identity.ProductUUID)
		c.metrics.skip()
	}

	session := c.sessions.ResolveSession(ctx, c.identity.ProductUUID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &session
	if c.state == StateUninitialized {
		c.state = StateInitialized
	}
}

// ResolveSession resolves and records the session without touching the
// snapshot gate. It reports false when the client is disabled.
func (c *Client) ResolveSession(ctx context.Context) (Session, bool) {
	if !c.enabled {
		return Session{}, false
	}
	session := c.sessions.ResolveSession(ctx, c.identity.ProductUUID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &session
	return session, true
}

// Track buffers an event. Events tracked after Close are dropped.
func (c *Client) Track(name string, value any) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateFinalized {
		c.logger.Debug("Event tracked after close, dropping", "event", name)
		return
	}
	c.buffer.Track(name, value)
	c.state = StateTracking
	c.metrics.track()
}

// Close flushes buffered events as one batch. Only the first call does
// anything, and it performs no I/O when nothing was tracked.
func (c *Client) Close(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateFinalized {
		c.mu.Unlock()
		return
	}
	c.state = StateFinalized
	if !c.enabled || c.buffer.IsEmpty() {
		c.mu.Unlock()
		return
	}
	events := c.buffer.Drain()
	session := c.session
	c.mu.Unlock()

	events = encodeValues(events, c.logger)

	if session == nil {
		s := c.sessions.ResolveSession(ctx, c.identity.ProductUUID)
		session = &s

		c.mu.Lock()
		c.session = session
		c.mu.Unlock()
	}

	batch := EventBatch{
		Session: SessionRef{
			UUID:  session.UUID,
			Start: session.StartTime,
		},
		ProductUUID: c.identity.ProductUUID,
		Events:      events,
	}
	c.logger.Debug("Flushing events", "count", len(events), "session_uuid", session.UUID)
	c.dispatcher.Send(ctx, KindEvents, batch)
}

// Wait blocks until all background sends have finished. Short-lived hosts
// call it before exiting so the requests are not cut off.
func (c *Client) Wait() {
	c.dispatcher.Wait()
}

// Scope creates a client, initializes it, runs fn and closes the client on
// every exit path, including a panic in fn. fn's error is returned as is.
func Scope(ctx context.Context, identity Identity, fn func(ctx context.Context, c *Client) error, opts ...Opt) error {
	c, err := New(identity, opts...)
	if err != nil {
		return err
	}
	defer c.Close(ctx)

	c.Initialize(ctx)
	return fn(WithClient(ctx, c), c)
}

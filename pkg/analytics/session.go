package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wp-poweranalytics/power-analytics/pkg/kvcache"
)

// SessionTTL is how long a session record lives in the cache.
const SessionTTL = 10 * time.Minute

// SessionManager hands out the current session for a product, creating one
// when the cached record is missing, expired or unreadable.
type SessionManager struct {
	cache     kvcache.Cache
	namespace string
	now       func() time.Time
	loc       *time.Location
	newID     func() string
	logger    *analyticsLogger
}

func NewSessionManager(cache kvcache.Cache, namespace string, now func() time.Time, loc *time.Location, logger *analyticsLogger) *SessionManager {
	return &SessionManager{
		cache:     cache,
		namespace: namespace,
		now:       now,
		loc:       loc,
		newID:     newSessionUUID,
		logger:    logger,
	}
}

func (m *SessionManager) key(productUUID string) string {
	return m.namespace + "-" + productUUID + "-events"
}

// ResolveSession returns the cached session unchanged while it lives.
// Reading does not extend the record's lifetime.
func (m *SessionManager) ResolveSession(ctx context.Context, productUUID string) Session {
	key := m.key(productUUID)

	if s, ok := m.load(ctx, key); ok {
		return s
	}

	// Truncated so the returned value matches what a later read decodes.
	s := Session{
		UUID:      m.newID(),
		StartTime: Timestamp{m.now().In(m.loc).Truncate(time.Second)},
	}

	data, err := json.Marshal(s)
	if err != nil {
		m.logger.Debug("Failed to encode session", "error", err)
		return s
	}
	if err := m.cache.Set(ctx, key, string(data), SessionTTL); err != nil {
		m.logger.Debug("Failed to store session", "key", key, "error", err)
	}

	m.logger.Debug("Started new session", "session_uuid", s.UUID)
	return s
}

func (m *SessionManager) load(ctx context.Context, key string) (Session, bool) {
	raw, found, err := m.cache.Get(ctx, key)
	if err != nil {
		m.logger.Debug("Session record unreadable, starting a new one", "key", key, "error", err)
		return Session{}, false
	}
	if !found || raw == "" {
		return Session{}, false
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		m.logger.Debug("Malformed session record, starting a new one", "key", key, "error", err)
		return Session{}, false
	}
	if s.UUID == "" || s.StartTime.IsZero() {
		m.logger.Debug("Incomplete session record, starting a new one", "key", key)
		return Session{}, false
	}
	return s, true
}

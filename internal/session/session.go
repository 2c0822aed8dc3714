// Package session manages the pseudo-anonymous visitor session
// identifier. The browser's cookie jar is the durable client-side
// store; the Manager is the single owner of that state rather than it
// living in ambient globals.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CookieName carries the session identifier between page loads.
	CookieName = "ga_session"

	// DefaultTTL is the sliding inactivity window after which a
	// visitor counts as a new session.
	DefaultTTL = 30 * time.Minute
)

// Manager issues and refreshes session identifiers via cookies.
type Manager struct {
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewManager returns a Manager with the given sliding-expiry window;
// ttl <= 0 selects DefaultTTL. Set secure for HTTPS-only deployments.
func NewManager(ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{cookieName: CookieName, ttl: ttl, secure: secure}
}

// GetOrCreate returns the request's session identifier, generating one
// when no unexpired cookie is present. The cookie is unconditionally
// re-set on every call, so the expiry slides: a visitor idle for longer
// than the TTL gets a fresh identifier on their next view. Non-browser
// callers that drop cookies simply receive a new identifier each time.
func (m *Manager) GetOrCreate(c *gin.Context) string {
	id, err := c.Cookie(m.cookieName)
	if err != nil || id == "" {
		id = NewID()
	}

	c.SetCookie(m.cookieName, id, int(m.ttl/time.Second), "/", "", m.secure, true)
	return id
}

// NewID generates a session identifier. A v4 UUID is preferred; if the
// platform's randomness source fails, a timestamp plus random-suffix
// composite keeps tracking functional with weaker uniqueness.
func NewID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}

	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(suffix))
}

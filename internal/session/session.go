// Package session manages the persisted authentication session for the
// UpWatch CLI. A session is the access/refresh token pair issued by the
// backend; it is written by credential login and the OAuth exchange, read on
// every authenticated request, and cleared on logout or when a refresh is
// rejected.
package session

import (
	"context"
	"strings"
)

// Session is the access/refresh token pair issued by the backend. Tokens are
// opaque strings at this layer; no expiry is tracked client-side.
type Session struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Store persists the session across process restarts. Implementations must
// replace the stored value wholesale on Save so readers never observe a
// partially written session.
type Store interface {
	// Save replaces the persisted session.
	Save(ctx context.Context, s *Session) error
	// Load returns the persisted session, or nil when none is stored.
	Load(ctx context.Context) (*Session, error)
	// Clear removes the persisted session.
	Clear(ctx context.Context) error
}

// IsLoggedIn reports whether the store currently holds a session with a
// non-empty access token. It is a presence check only; the token is not
// validated in any way.
func IsLoggedIn(ctx context.Context, store Store) bool {
	s, err := store.Load(ctx)
	if err != nil || s == nil {
		return false
	}
	return strings.TrimSpace(s.Access) != ""
}

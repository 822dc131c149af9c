// Package session keeps per browser state in the fiber session storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/cernauth/cernauth/internal/db/models"
	"github.com/cernauth/cernauth/internal/identity"
)

// ErrNotFound is returned by Read for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Store is the global session store instance.
var Store *session.Store //nolint:gochecknoglobals

// Data represents the session data structure.
type Data struct {
	User models.User
	// Roles holds the role claims derived for this session, keyed by provider.
	Roles map[string][]identity.Need `json:",omitempty"`

	// OAuthState guards the authorization callback against CSRF.
	OAuthState  string    `json:",omitempty"`
	StateExpiry time.Time `json:",omitempty"`
	// Next is the path to return to after the OAuth round trip.
	Next string `json:",omitempty"`
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return Store.Storage.Set(sessionID, out, exp) //nolint:wrapcheck
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	if sessionID == "" {
		return ErrNotFound
	}

	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if len(byteData) == 0 {
		return ErrNotFound
	}

	return json.Unmarshal(byteData, s) //nolint:wrapcheck
}

// Delete removes the session.
func Delete(sessionID string) error {
	return Store.Storage.Delete(sessionID) //nolint:wrapcheck
}

// Provides returns the role claims stored under key.
func (s *Data) Provides(key string) []identity.Need {
	return s.Roles[key]
}

// SetProvides replaces the role claims stored under key.
func (s *Data) SetProvides(key string, needs []identity.Need) {
	if s.Roles == nil {
		s.Roles = make(map[string][]identity.Need)
	}

	s.Roles[key] = needs
}

// DeleteProvides removes key and returns the claims stored under it.
func (s *Data) DeleteProvides(key string) []identity.Need {
	needs := s.Roles[key]
	delete(s.Roles, key)

	return needs
}

// ValidState reports whether state matches the pending OAuth state at now.
func (s *Data) ValidState(state string, now time.Time) bool {
	return s.OAuthState != "" && state == s.OAuthState && now.Before(s.StateExpiry)
}

// Init initializes the session store with the provided storage backend.
// A nil storage keeps sessions in memory.
func Init(storage fiber.Storage) {
	Store = session.New(session.Config{
		Storage: storage,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err //nolint:wrapcheck
	}

	return hex.EncodeToString(b), nil
}

// Package session holds the bearer token of the signed-in user.
// The token is issued and verified by the storefront API; here it is only decoded to learn
// who is signed in and until when.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	storeerrors "github.com/abgdnv/storesync/internal/errors"
	"github.com/abgdnv/storesync/pkg/gateway"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

type Info struct {
	Active    bool      `json:"active"`
	Subject   string    `json:"subject,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Session implements gateway.TokenSource.
type Session struct {
	mu        sync.RWMutex
	raw       string
	subject   string
	expiresAt time.Time
	now       func() time.Time
}

var _ gateway.TokenSource = (*Session)(nil)

func New() *Session {
	return &Session{now: time.Now}
}

// Set replaces the current token. Tokens that are not JWTs or are already expired are refused
// and leave the current session untouched.
func (s *Session) Set(raw string) (Info, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	tok, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", storeerrors.ErrInvalidToken, err)
	}
	if err := jwt.Validate(tok, jwt.WithClock(jwt.ClockFunc(s.now))); err != nil {
		return Info{}, fmt.Errorf("%w: %v", storeerrors.ErrTokenExpired, err)
	}
	subject, _ := tok.Subject()
	expiresAt, _ := tok.Expiration()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	s.subject = subject
	s.expiresAt = expiresAt.UTC()
	return s.infoLocked(), nil
}

// Token returns the raw token, or "" when there is none or it has expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.activeLocked() {
		return ""
	}
	return s.raw
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw, s.subject, s.expiresAt = "", "", time.Time{}
}

func (s *Session) activeLocked() bool {
	if s.raw == "" {
		return false
	}
	return s.expiresAt.IsZero() || s.now().Before(s.expiresAt)
}

func (s *Session) infoLocked() Info {
	if !s.activeLocked() {
		return Info{}
	}
	return Info{Active: true, Subject: s.subject, ExpiresAt: s.expiresAt}
}

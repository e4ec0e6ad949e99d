// Package session holds the client-side credential for the expenses API.
//
// A Session is created per request (web) or per command (CLI) from the
// stored credential and passed explicitly to every API call. When the API
// rejects the credential the Session is invalidated and subscribers are
// notified, so the owner of the storage (cookie or file) can clear it.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Reason explains why a session ended.
type Reason string

const (
	ReasonUnauthorized Reason = "unauthorized"
	ReasonLogout       Reason = "logout"
)

// Listener is notified once when the session is invalidated.
type Listener func(Reason)

type Session struct {
	mu          sync.Mutex
	token       string
	invalidated bool
	listeners   []Listener
}

// New creates a session carrying the given credential (may be empty).
func New(token string) *Session {
	return &Session{token: token}
}

// Token returns the current credential, "" once invalidated.
// Safe to call on a nil Session.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticated is a presence check only; the token is not validated locally.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Fingerprint identifies the credential without exposing it.
func (s *Session) Fingerprint() string {
	tok := s.Token()
	if tok == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:8])
}

// Subscribe registers fn to run when the session is invalidated.
func (s *Session) Subscribe(fn Listener) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Invalidate drops the credential and notifies subscribers. Only the first
// call has any effect.
func (s *Session) Invalidate(reason Reason) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.invalidated {
		s.mu.Unlock()
		return
	}
	s.invalidated = true
	s.token = ""
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(reason)
	}
}

// Invalidated reports whether Invalidate has been called.
func (s *Session) Invalidated() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

package endpoints

import (
	"sync"
	"time"

	"github.com/danij/Forum-sub001/internal/idgen"
)

// sessionCookieName is the cookie POST login issues and every subsequent
// request is expected to echo back (§6.2 "issue session cookie").
const sessionCookieName = "sessionId"

// sessionTTL bounds how long an issued session cookie is honored before a
// fresh login is required.
const sessionTTL = 24 * time.Hour

type session struct {
	user    idgen.ID
	expires time.Time
}

// Sessions is the minimal in-memory session table backing the login
// endpoint: a random token mapped to a user id, swept for expiry on
// lookup. The source spec leaves session storage unspecified beyond
// "issue session cookie"; this is the simplest correct implementation
// consistent with the single-process, in-memory design of the rest of
// the store (§5).
type Sessions struct {
	mu    sync.Mutex
	byTok map[string]session
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{byTok: make(map[string]session)}
}

// Issue mints a fresh token for user, valid for sessionTTL.
func (s *Sessions) Issue(user idgen.ID) string {
	tok := idgen.NewID().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byTok[tok] = session{user: user, expires: time.Now().Add(sessionTTL)}
	return tok
}

// Lookup resolves tok to its user id, if the session exists and has not
// expired. An expired session is evicted on lookup.
func (s *Sessions) Lookup(tok string) (idgen.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byTok[tok]
	if !ok {
		return idgen.Zero, false
	}
	if time.Now().After(sess.expires) {
		delete(s.byTok, tok)
		return idgen.Zero, false
	}
	return sess.user, true
}

// Revoke drops tok, e.g. on logout.
func (s *Sessions) Revoke(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byTok, tok)
}

package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"

	csrfTokenTTL = 4 * time.Hour
)

// CSRFStore issues per-session CSRF tokens and validates them on
// state-changing requests. Tokens are kept in memory; a restart simply
// forces clients to fetch a new one.
type CSRFStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewCSRFStore() *CSRFStore {
	return &CSRFStore{tokens: make(map[string]time.Time)}
}

// Issue creates a new token, records it, and sets the CSRF cookie.
func (s *CSRFStore) Issue(w http.ResponseWriter, r *http.Request) string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable
		panic(err)
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.tokens[token] = time.Now().Add(csrfTokenTTL)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(csrfTokenTTL.Seconds()),
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// Validate checks that the request's CSRF header matches an issued,
// unexpired token and agrees with the cookie value.
func (s *CSRFStore) Validate(r *http.Request) bool {
	header := r.Header.Get(CSRFHeaderName)
	if header == "" {
		header = r.FormValue("csrf_token")
	}
	if header == "" {
		return false
	}

	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.tokens[header]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.tokens, header)
		return false
	}
	return true
}

// Cleanup removes expired tokens. Called periodically from the server's
// maintenance goroutine.
func (s *CSRFStore) Cleanup() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, expiry := range s.tokens {
		if now.After(expiry) {
			delete(s.tokens, token)
		}
	}
}

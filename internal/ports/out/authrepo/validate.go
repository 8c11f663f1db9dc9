package authrepo

import (
	"fmt"
	"net/mail"
	"sync"
	"unicode/utf8"

	"github.com/fieldops/fieldops-api/internal/domain"
)

// MinPasswordLength is enforced on sign-up.
const MinPasswordLength = 8

// NormalizeSignUp validates sign-up input and returns the normalised email and display name.
func NormalizeSignUp(email, password, displayName string) (string, string, error) {
	email = domain.NormalizeEmail(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", "", fmt.Errorf("%w: invalid email", ErrInvalid)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalid, MinPasswordLength)
	}
	name := domain.NormalizeHumanName(displayName)
	if name == "" {
		return "", "", fmt.Errorf("%w: displayName must be non-empty", ErrInvalid)
	}
	return email, name, nil
}

// SessionHolder keeps the signed-in session of one client handle.
// It is safe for concurrent use.
type SessionHolder struct {
	mu sync.RWMutex
	s  *Session
}

func (h *SessionHolder) Set(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.s = &s
}

// Clear drops the session and returns it, if any.
func (h *SessionHolder) Clear() (Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.s == nil {
		return Session{}, false
	}
	s := *h.s
	h.s = nil
	return s, true
}

func (h *SessionHolder) Get() (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.s == nil {
		return Session{}, false
	}
	return *h.s, true
}

// Package session is the gateway to the session store and the
// human-verification code subsystem. The identity core only consumes this
// contract; code image rendering and cookie handling live outside it.
package session

import (
	"context"
	"crypto/rand"
	"fmt"

	"passport/internal/account/models"
)

// Gateway issues and checks one-time verification codes per session and
// persists the authenticated session after a successful login.
type Gateway interface {
	// VerificationCode returns the code expected for the session, or
	// sentinel.ErrNotFound when none was issued or it expired.
	VerificationCode(ctx context.Context, sessionID string) (string, error)
	SetVerificationCode(ctx context.Context, sessionID, code string) error
	ClearVerificationCode(ctx context.Context, sessionID string) error

	// Bind associates the session with the authenticated user and caches
	// the serialized user snapshot for read-path freshness.
	Bind(ctx context.Context, sessionID string, user *models.User) error
	// Clear drops the session binding (logout). Idempotent.
	Clear(ctx context.Context, sessionID string) error
	// UserID resolves the session to its bound user, or
	// sentinel.ErrNotFound for unauthenticated sessions.
	UserID(ctx context.Context, sessionID string) (int64, error)

	// RefreshUser replaces the cached user snapshot after a profile edit.
	// Best-effort: staleness here never affects correctness.
	RefreshUser(ctx context.Context, user *models.User) error
	// User returns the cached snapshot, or sentinel.ErrNotFound on miss.
	User(ctx context.Context, userID int64) (*models.User, error)
}

// Verification codes avoid visually ambiguous characters.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const codeLength = 4

// NewCode generates a random verification challenge. Comparison against the
// submitted value is case-insensitive, so the alphabet is upper-case only.
func NewCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

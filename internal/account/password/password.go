// Package password provides the one-way credential transforms. Plaintext
// passwords exist only transiently in memory; every persisted or compared
// value is a digest.
package password

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned by Compare when the plaintext does not correspond
// to the stored digest. Callers translate it into their own taxonomy so the
// reason is never distinguishable to end users.
var ErrMismatch = errors.New("password mismatch")

// Hasher transforms plaintext passwords before storage and verifies
// submitted passwords against stored digests.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) error
}

// Legacy is the compatibility hasher: a deterministic unsalted MD5 hex
// digest. It matches records created by the historical implementation and
// keeps hash(x) stable across calls, but offers no resistance to offline
// dictionary attacks. New deployments should prefer Bcrypt.
type Legacy struct{}

func NewLegacy() Legacy { return Legacy{} }

func (Legacy) Hash(plaintext string) (string, error) {
	sum := md5.Sum([]byte(plaintext))
	return hex.EncodeToString(sum[:]), nil
}

func (l Legacy) Compare(plaintext, digest string) error {
	computed, _ := l.Hash(plaintext)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) != 1 {
		return ErrMismatch
	}
	return nil
}

// Bcrypt is the recommended hasher: salted, adaptive, one digest per call.
// The salt travels inside the encoded digest, so the store schema is
// unchanged relative to Legacy.
type Bcrypt struct {
	cost int
}

func NewBcrypt() Bcrypt { return Bcrypt{cost: bcrypt.DefaultCost} }

// NewBcryptWithCost allows tests to lower the cost factor.
func NewBcryptWithCost(cost int) Bcrypt { return Bcrypt{cost: cost} }

func (b Bcrypt) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (Bcrypt) Compare(plaintext, digest string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}

// Package store defines the persistence contract required by the identity
// service, with an in-memory implementation for tests and a PostgreSQL
// implementation for production.
package store

import (
	"context"

	"passport/internal/account/models"
	"passport/pkg/platform/sentinel"
)

// UserStore is the repository facade consumed by the identity service.
//
// Uniqueness of account and nickname is enforced authoritatively by the
// implementation (unique constraint or equivalent); Insert, UpdateProfile and
// UpdateAccount return a *Conflict wrapping sentinel.ErrAlreadyUsed on
// collision. Lookups return sentinel.ErrNotFound when no record matches.
// Conflict is returned when a unique value is already claimed. It wraps
// sentinel.ErrAlreadyUsed and names the colliding field so the service can
// pick the right taxonomy error when an insert violates either constraint.
type Conflict struct {
	Field string // "account" or "nickname"
}

func (c *Conflict) Error() string { return c.Field + " already used" }

func (c *Conflict) Unwrap() error { return sentinel.ErrAlreadyUsed }

type UserStore interface {
	// AllocateID reserves the next user identifier. IDs are assigned
	// exactly once, at creation.
	AllocateID(ctx context.Context) (int64, error)

	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByAccount(ctx context.Context, account string) (*models.User, error)

	CountByAccount(ctx context.Context, account string) (int, error)
	CountByNickname(ctx context.Context, nick string) (int, error)

	// PasswordDigestByAccount returns the stored digest for the account
	// alias, or sentinel.ErrNotFound if the alias is unknown.
	PasswordDigestByAccount(ctx context.Context, account string) (string, error)

	UpdatePassword(ctx context.Context, id int64, digest string) error
	UpdatePhoto(ctx context.Context, id int64, server, path string) error
	// UpdateProfile applies a partial update; nil fields are left unchanged.
	UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) error
	// UpdateAccount sets the login alias and credential digest together.
	UpdateAccount(ctx context.Context, id int64, account, digest string) error
}

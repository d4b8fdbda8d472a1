// Package models holds the account entities shared by the service, stores and
// transport layers.
package models

import "time"

// Gender values follow the legacy numeric encoding.
const (
	GenderUnknown = 0
	GenderMale    = 1
	GenderFemale  = 2
)

// User is the central account entity. The numeric ID is assigned exactly once
// by the store's allocator at creation and never changes. Account is the
// optional login alias, unique among non-empty values and stored lowercased.
// Nickname is the required unique display name. Password holds the one-way
// digest; plaintext is never persisted or logged.
type User struct {
	ID          int64     `json:"user_id"`
	Account     string    `json:"account,omitempty"`
	Password    string    `json:"-"`
	Nickname    string    `json:"nick"`
	RealName    string    `json:"real_name,omitempty"`
	Gender      *int      `json:"gender,omitempty"`
	BirthYear   *int      `json:"birth_year,omitempty"`
	BirthMonth  *int      `json:"birth_month,omitempty"`
	BirthDay    *int      `json:"birth_day,omitempty"`
	AvatarSrv   string    `json:"avatar_server,omitempty"`
	AvatarPath  string    `json:"avatar_path,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Public returns the projection safe for unauthenticated reads: the login
// alias and credential digest are blanked, everything else is visible.
func (u User) Public() User {
	u.Account = ""
	u.Password = ""
	return u
}

// ProfileUpdate carries a partial profile mutation. Nil fields mean "leave
// unchanged"; Nickname is always present because every basic-profile edit
// re-submits it.
type ProfileUpdate struct {
	Nickname   string
	RealName   *string
	Gender     *int
	BirthYear  *int
	BirthMonth *int
	BirthDay   *int
	Summary    *string
}

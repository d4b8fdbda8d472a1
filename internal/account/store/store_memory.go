package store

import (
	"context"
	"strings"
	"sync"

	"passport/internal/account/models"
	"passport/pkg/platform/sentinel"
	"passport/pkg/requestcontext"
)

// InMemory keeps accounts in process memory. It mirrors the uniqueness
// guarantees of the PostgreSQL store so service tests exercise the same
// error paths. It favors clarity over performance.
type InMemory struct {
	mu     sync.RWMutex
	users  map[int64]models.User
	nextID int64
	writes int
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[int64]models.User)}
}

func (s *InMemory) AllocateID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID, nil
}

func (s *InMemory) Insert(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Account != "" && s.accountInUseLocked(user.Account, 0) {
		return &Conflict{Field: "account"}
	}
	if s.nicknameInUseLocked(user.Nickname, 0) {
		return &Conflict{Field: "nickname"}
	}
	now := requestcontext.Now(ctx)
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	s.writes++
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByAccount(_ context.Context, account string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Account != "" && u.Account == account {
			return &u, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) CountByAccount(_ context.Context, account string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.Account != "" && u.Account == account {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) CountByNickname(_ context.Context, nick string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.Nickname == nick {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) PasswordDigestByAccount(_ context.Context, account string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Account != "" && u.Account == account {
			return u.Password, nil
		}
	}
	return "", sentinel.ErrNotFound
}

func (s *InMemory) UpdatePassword(ctx context.Context, id int64, digest string) error {
	return s.mutate(ctx, id, func(u *models.User) error {
		u.Password = digest
		return nil
	})
}

func (s *InMemory) UpdatePhoto(ctx context.Context, id int64, server, path string) error {
	return s.mutate(ctx, id, func(u *models.User) error {
		u.AvatarSrv = server
		u.AvatarPath = path
		return nil
	})
}

func (s *InMemory) UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) error {
	return s.mutate(ctx, id, func(u *models.User) error {
		if upd.Nickname != "" && upd.Nickname != u.Nickname {
			if s.nicknameInUseLocked(upd.Nickname, id) {
				return &Conflict{Field: "nickname"}
			}
			u.Nickname = upd.Nickname
		}
		if upd.RealName != nil {
			u.RealName = *upd.RealName
		}
		if upd.Gender != nil {
			u.Gender = upd.Gender
		}
		if upd.BirthYear != nil {
			u.BirthYear = upd.BirthYear
		}
		if upd.BirthMonth != nil {
			u.BirthMonth = upd.BirthMonth
		}
		if upd.BirthDay != nil {
			u.BirthDay = upd.BirthDay
		}
		if upd.Summary != nil {
			u.Summary = *upd.Summary
		}
		return nil
	})
}

func (s *InMemory) UpdateAccount(ctx context.Context, id int64, account, digest string) error {
	return s.mutate(ctx, id, func(u *models.User) error {
		if s.accountInUseLocked(account, id) {
			return &Conflict{Field: "account"}
		}
		u.Account = account
		u.Password = digest
		return nil
	})
}

// WriteCount reports the number of successful mutations. Tests use it to
// assert the one-write-per-operation discipline.
func (s *InMemory) WriteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *InMemory) mutate(ctx context.Context, id int64, fn func(*models.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	u.UpdatedAt = requestcontext.Now(ctx)
	s.users[id] = u
	s.writes++
	return nil
}

func (s *InMemory) accountInUseLocked(account string, exceptID int64) bool {
	needle := strings.ToLower(account)
	for id, u := range s.users {
		if id != exceptID && u.Account != "" && u.Account == needle {
			return true
		}
	}
	return false
}

func (s *InMemory) nicknameInUseLocked(nick string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Nickname == nick {
			return true
		}
	}
	return false
}

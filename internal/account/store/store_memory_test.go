package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passport/internal/account/models"
	"passport/pkg/platform/sentinel"
	"passport/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) insertUser(account, nick string) *models.User {
	id, err := s.store.AllocateID(s.ctx)
	s.Require().NoError(err)
	u := &models.User{ID: id, Account: account, Password: "digest", Nickname: nick}
	s.Require().NoError(s.store.Insert(s.ctx, u))
	return u
}

func (s *InMemoryStoreSuite) TestAllocateID() {
	first, err := s.store.AllocateID(s.ctx)
	s.Require().NoError(err)
	second, err := s.store.AllocateID(s.ctx)
	s.Require().NoError(err)
	s.Greater(second, first)
}

func (s *InMemoryStoreSuite) TestInsertAndLookup() {
	s.Run("round trips by id and account", func() {
		u := s.insertUser("alice01", "Alice")

		byID, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal("alice01", byID.Account)

		byAccount, err := s.store.FindByAccount(s.ctx, "alice01")
		s.Require().NoError(err)
		s.Equal(u.ID, byAccount.ID)
	})

	s.Run("stamps creation time from the request context", func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(s.ctx, now)

		id, err := s.store.AllocateID(ctx)
		s.Require().NoError(err)
		u := &models.User{ID: id, Nickname: "Stamp"}
		s.Require().NoError(s.store.Insert(ctx, u))

		found, err := s.store.FindByID(ctx, id)
		s.Require().NoError(err)
		s.Equal(now, found.CreatedAt)
		s.Equal(now, found.UpdatedAt)
	})

	s.Run("missing lookups return ErrNotFound", func() {
		_, err := s.store.FindByID(s.ctx, 9999)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByAccount(s.ctx, "nobody1")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestUniqueness() {
	s.insertUser("alice01", "Alice")

	s.Run("duplicate account conflicts", func() {
		id, err := s.store.AllocateID(s.ctx)
		s.Require().NoError(err)
		err = s.store.Insert(s.ctx, &models.User{ID: id, Account: "alice01", Nickname: "Other"})
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
		var conflict *Conflict
		s.Require().ErrorAs(err, &conflict)
		s.Equal("account", conflict.Field)
	})

	s.Run("duplicate nickname conflicts", func() {
		id, err := s.store.AllocateID(s.ctx)
		s.Require().NoError(err)
		err = s.store.Insert(s.ctx, &models.User{ID: id, Account: "other01", Nickname: "Alice"})
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
		var conflict *Conflict
		s.Require().ErrorAs(err, &conflict)
		s.Equal("nickname", conflict.Field)
	})

	s.Run("empty accounts never collide with each other", func() {
		first, err := s.store.AllocateID(s.ctx)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Insert(s.ctx, &models.User{ID: first, Nickname: "NoAlias1"}))

		second, err := s.store.AllocateID(s.ctx)
		s.Require().NoError(err)
		s.NoError(s.store.Insert(s.ctx, &models.User{ID: second, Nickname: "NoAlias2"}))
	})
}

func (s *InMemoryStoreSuite) TestCounts() {
	s.insertUser("alice01", "Alice")

	n, err := s.store.CountByAccount(s.ctx, "alice01")
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.store.CountByNickname(s.ctx, "Alice")
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.store.CountByAccount(s.ctx, "nobody1")
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *InMemoryStoreSuite) TestPasswordDigestByAccount() {
	s.insertUser("alice01", "Alice")

	digest, err := s.store.PasswordDigestByAccount(s.ctx, "alice01")
	s.Require().NoError(err)
	s.Equal("digest", digest)

	_, err = s.store.PasswordDigestByAccount(s.ctx, "nobody1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpdateProfile() {
	u := s.insertUser("alice01", "Alice")

	s.Run("applies only supplied fields", func() {
		summary := "hello"
		gender := models.GenderFemale
		err := s.store.UpdateProfile(s.ctx, u.ID, models.ProfileUpdate{
			Nickname: "Alicia",
			Gender:   &gender,
			Summary:  &summary,
		})
		s.Require().NoError(err)

		found, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal("Alicia", found.Nickname)
		s.Equal("hello", found.Summary)
		s.Require().NotNil(found.Gender)
		s.Equal(models.GenderFemale, *found.Gender)
		s.Empty(found.RealName)
	})

	s.Run("keeping the same nickname is not a conflict", func() {
		err := s.store.UpdateProfile(s.ctx, u.ID, models.ProfileUpdate{Nickname: "Alicia"})
		s.NoError(err)
	})

	s.Run("taking another user's nickname conflicts", func() {
		s.insertUser("bob01", "Bob")
		err := s.store.UpdateProfile(s.ctx, u.ID, models.ProfileUpdate{Nickname: "Bob"})
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("unknown user returns ErrNotFound", func() {
		err := s.store.UpdateProfile(s.ctx, 9999, models.ProfileUpdate{Nickname: "Ghost"})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestUpdateAccount() {
	u := s.insertUser("", "NoAlias")

	s.Run("assigns alias and digest together", func() {
		err := s.store.UpdateAccount(s.ctx, u.ID, "fresh01", "newdigest")
		s.Require().NoError(err)

		found, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal("fresh01", found.Account)
		s.Equal("newdigest", found.Password)
	})

	s.Run("claimed alias conflicts", func() {
		other := s.insertUser("", "Other")
		err := s.store.UpdateAccount(s.ctx, other.ID, "fresh01", "digest")
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

func (s *InMemoryStoreSuite) TestWriteCount() {
	s.Equal(0, s.store.WriteCount())
	u := s.insertUser("alice01", "Alice")
	s.Equal(1, s.store.WriteCount())

	s.Require().NoError(s.store.UpdatePassword(s.ctx, u.ID, "next"))
	s.Equal(2, s.store.WriteCount())

	// Failed mutations never count as writes.
	_ = s.store.UpdateProfile(s.ctx, 9999, models.ProfileUpdate{Nickname: "Ghost"})
	s.Equal(2, s.store.WriteCount())
}

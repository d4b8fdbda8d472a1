package session

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"passport/internal/account/models"
	"passport/pkg/platform/sentinel"
)

type InMemoryGatewaySuite struct {
	suite.Suite
	gw  *InMemoryGateway
	ctx context.Context
}

func (s *InMemoryGatewaySuite) SetupTest() {
	s.gw = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemoryGatewaySuite(t *testing.T) {
	suite.Run(t, new(InMemoryGatewaySuite))
}

func (s *InMemoryGatewaySuite) TestVerificationCodes() {
	s.Run("round trips a stored code", func() {
		s.Require().NoError(s.gw.SetVerificationCode(s.ctx, "sid-1", "AB2C"))
		code, err := s.gw.VerificationCode(s.ctx, "sid-1")
		s.Require().NoError(err)
		s.Equal("AB2C", code)
	})

	s.Run("unknown session yields ErrNotFound", func() {
		_, err := s.gw.VerificationCode(s.ctx, "sid-missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("clear removes the code", func() {
		s.Require().NoError(s.gw.SetVerificationCode(s.ctx, "sid-2", "AB2C"))
		s.Require().NoError(s.gw.ClearVerificationCode(s.ctx, "sid-2"))
		_, err := s.gw.VerificationCode(s.ctx, "sid-2")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("clear is idempotent", func() {
		s.NoError(s.gw.ClearVerificationCode(s.ctx, "sid-never-set"))
	})
}

func (s *InMemoryGatewaySuite) TestSessionBinding() {
	user := &models.User{ID: 42, Nickname: "Alice"}

	s.Run("bind resolves session to user and caches the snapshot", func() {
		s.Require().NoError(s.gw.Bind(s.ctx, "sid-1", user))

		id, err := s.gw.UserID(s.ctx, "sid-1")
		s.Require().NoError(err)
		s.Equal(int64(42), id)

		cached, err := s.gw.User(s.ctx, 42)
		s.Require().NoError(err)
		s.Equal("Alice", cached.Nickname)
	})

	s.Run("unbound session yields ErrNotFound", func() {
		_, err := s.gw.UserID(s.ctx, "sid-anon")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("clear drops the binding", func() {
		s.Require().NoError(s.gw.Bind(s.ctx, "sid-2", user))
		s.Require().NoError(s.gw.Clear(s.ctx, "sid-2"))
		_, err := s.gw.UserID(s.ctx, "sid-2")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("refresh replaces the cached snapshot", func() {
		s.Require().NoError(s.gw.Bind(s.ctx, "sid-3", user))
		updated := *user
		updated.Nickname = "Alicia"
		s.Require().NoError(s.gw.RefreshUser(s.ctx, &updated))

		cached, err := s.gw.User(s.ctx, 42)
		s.Require().NoError(err)
		s.Equal("Alicia", cached.Nickname)
	})
}

func TestNewCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("NewCode: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

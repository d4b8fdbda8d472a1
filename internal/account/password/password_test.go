package password

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type HasherSuite struct {
	suite.Suite
}

func TestHasherSuite(t *testing.T) {
	suite.Run(t, new(HasherSuite))
}

func (s *HasherSuite) TestLegacy() {
	h := NewLegacy()

	s.Run("is deterministic", func() {
		first, err := h.Hash("hunter2secret")
		s.Require().NoError(err)
		second, err := h.Hash("hunter2secret")
		s.Require().NoError(err)
		s.Equal(first, second)
	})

	s.Run("produces lowercase hex", func() {
		digest, err := h.Hash("hunter2secret")
		s.Require().NoError(err)
		s.Len(digest, 32)
		s.Regexp(`^[0-9a-f]{32}$`, digest)
	})

	s.Run("compare accepts matching digest", func() {
		digest, err := h.Hash("hunter2secret")
		s.Require().NoError(err)
		s.NoError(h.Compare("hunter2secret", digest))
	})

	s.Run("compare rejects wrong plaintext", func() {
		digest, err := h.Hash("hunter2secret")
		s.Require().NoError(err)
		s.ErrorIs(h.Compare("wrongsecret", digest), ErrMismatch)
	})
}

func (s *HasherSuite) TestBcrypt() {
	h := NewBcryptWithCost(bcrypt.MinCost)

	s.Run("round trips", func() {
		digest, err := h.Hash("hunter2secret")
		s.Require().NoError(err)
		s.NoError(h.Compare("hunter2secret", digest))
	})

	s.Run("salts each digest", func() {
		first, err := h.Hash("hunter2secret")
		s.Require().NoError(err)
		second, err := h.Hash("hunter2secret")
		s.Require().NoError(err)
		s.NotEqual(first, second)
	})

	s.Run("compare rejects wrong plaintext", func() {
		digest, err := h.Hash("hunter2secret")
		s.Require().NoError(err)
		s.ErrorIs(h.Compare("wrongsecret", digest), ErrMismatch)
	})

	s.Run("compare rejects malformed digest", func() {
		s.Error(h.Compare("hunter2secret", "not-a-bcrypt-digest"))
	})
}

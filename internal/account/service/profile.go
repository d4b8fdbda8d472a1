package service

import (
	"context"
	"errors"
	"strings"

	"passport/internal/account/models"
	"passport/internal/account/password"
	"passport/internal/audit"
	domainerrors "passport/pkg/domain-errors"
)

// EditBasicProfile applies a multi-field profile mutation as one atomic
// update. Nickname keyword and uniqueness checks run only when the nickname
// actually changes, so re-submitting the current nickname never conflicts
// with itself. Returns the updated account view.
func (s *Service) EditBasicProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) (*models.User, error) {
	if userID <= 0 || strings.TrimSpace(upd.Nickname) == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidArgument,
			"user id and nickname are required")
	}
	if err := s.policy.CheckNickname(upd.Nickname); err != nil {
		return nil, err
	}
	if err := s.policy.CheckBirthday(upd.BirthYear, upd.BirthMonth, upd.BirthDay); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Nickname != user.Nickname {
		if err := s.policy.CheckNicknameKeywords(upd.Nickname); err != nil {
			return nil, err
		}
		taken, err := s.NicknameTaken(ctx, upd.Nickname)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domainerrors.New(domainerrors.CodeNicknameTaken,
				"nickname is already in use")
		}
	}

	if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
		return nil, translateConflict(err, "failed to update profile")
	}

	user.Nickname = upd.Nickname
	if upd.RealName != nil {
		user.RealName = *upd.RealName
	}
	if upd.Gender != nil {
		user.Gender = upd.Gender
	}
	if upd.BirthYear != nil {
		user.BirthYear = upd.BirthYear
	}
	if upd.BirthMonth != nil {
		user.BirthMonth = upd.BirthMonth
	}
	if upd.BirthDay != nil {
		user.BirthDay = upd.BirthDay
	}
	if upd.Summary != nil {
		user.Summary = *upd.Summary
	}

	s.metrics.IncrementProfileUpdated()
	s.emit(ctx, audit.ActionProfileUpdated, userID)
	return user, nil
}

// EditPassword rotates the credential after verifying the old one.
func (s *Service) EditPassword(ctx context.Context, userID int64, oldPlaintext, newPlaintext string) error {
	if userID <= 0 {
		return domainerrors.New(domainerrors.CodeInvalidArgument, "user id is required")
	}
	if err := s.policy.CheckPassword(newPlaintext); err != nil {
		return err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(oldPlaintext, user.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return domainerrors.New(domainerrors.CodeWrongOldPassword,
				"original password is wrong")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "password comparison failed")
	}

	digest, err := s.hasher.Hash(newPlaintext)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, userID, digest); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update password")
	}

	s.emit(ctx, audit.ActionPasswordChanged, userID)
	s.logger.InfoContext(ctx, "password changed", "user_id", userID)
	return nil
}

// EditAccount performs the one-time assignment of a login alias to an
// account created without one. The alias is validated like at registration;
// the new password is set in the same write.
func (s *Service) EditAccount(ctx context.Context, userID int64, account, plaintext string) error {
	if userID <= 0 {
		return domainerrors.New(domainerrors.CodeInvalidArgument, "user id is required")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Account != "" {
		return domainerrors.New(domainerrors.CodeAccountAlreadySet,
			"account is already assigned")
	}

	normalized, err := s.policy.NormalizeAccount(account)
	if err != nil {
		return err
	}
	if err := s.policy.CheckAccountKeywords(normalized); err != nil {
		return err
	}
	taken, err := s.AccountTaken(ctx, normalized)
	if err != nil {
		return err
	}
	if taken {
		return domainerrors.New(domainerrors.CodeAccountTaken, "account is already in use")
	}
	if err := s.policy.CheckPassword(plaintext); err != nil {
		return err
	}

	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to hash password")
	}
	if err := s.users.UpdateAccount(ctx, userID, normalized, digest); err != nil {
		return translateConflict(err, "failed to assign account")
	}

	s.emit(ctx, audit.ActionAccountAssigned, userID)
	return nil
}

// EditPhoto stores the avatar location as a server + path pair.
func (s *Service) EditPhoto(ctx context.Context, userID int64, server, path string) error {
	if userID <= 0 || strings.TrimSpace(server) == "" || strings.TrimSpace(path) == "" {
		return domainerrors.New(domainerrors.CodeInvalidArgument,
			"user id, avatar server and path are required")
	}
	if err := s.users.UpdatePhoto(ctx, userID, server, path); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update photo")
	}
	s.emit(ctx, audit.ActionAvatarChanged, userID)
	return nil
}

// EditGender updates only the gender field.
func (s *Service) EditGender(ctx context.Context, userID int64, gender int) error {
	if userID <= 0 {
		return domainerrors.New(domainerrors.CodeInvalidArgument, "user id is required")
	}
	if err := s.users.UpdateProfile(ctx, userID, models.ProfileUpdate{Gender: &gender}); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update gender")
	}
	s.metrics.IncrementProfileUpdated()
	s.emit(ctx, audit.ActionProfileUpdated, userID)
	return nil
}

// EditRealName updates only the display real-name.
func (s *Service) EditRealName(ctx context.Context, userID int64, realName string) error {
	if userID <= 0 || strings.TrimSpace(realName) == "" {
		return domainerrors.New(domainerrors.CodeInvalidArgument,
			"user id and real name are required")
	}
	if err := s.users.UpdateProfile(ctx, userID, models.ProfileUpdate{RealName: &realName}); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update real name")
	}
	s.metrics.IncrementProfileUpdated()
	s.emit(ctx, audit.ActionProfileUpdated, userID)
	return nil
}

// EditSummary updates only the free-text bio. An empty summary is valid.
func (s *Service) EditSummary(ctx context.Context, userID int64, summary string) error {
	if userID <= 0 {
		return domainerrors.New(domainerrors.CodeInvalidArgument, "user id is required")
	}
	if err := s.users.UpdateProfile(ctx, userID, models.ProfileUpdate{Summary: &summary}); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update summary")
	}
	s.metrics.IncrementProfileUpdated()
	s.emit(ctx, audit.ActionProfileUpdated, userID)
	return nil
}

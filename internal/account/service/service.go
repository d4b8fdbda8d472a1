// Package service orchestrates account registration, authentication and
// profile mutation. Every public operation is a synchronous
// validate-then-commit pipeline: validation runs entirely before any write,
// and a successful call performs exactly one persistence write.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"passport/internal/account/metrics"
	"passport/internal/account/models"
	"passport/internal/account/password"
	"passport/internal/account/policy"
	"passport/internal/account/store"
	"passport/internal/audit"
	domainerrors "passport/pkg/domain-errors"
	"passport/pkg/platform/sentinel"
	"passport/pkg/requestcontext"
)

// Service is the identity core. The store's unique constraints are the
// authoritative uniqueness guard; the count-based pre-checks here only
// reject obvious collisions before spending a write.
type Service struct {
	users   store.UserStore
	policy  *policy.Policy
	hasher  password.Hasher
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher
}

type Option func(*Service)

// WithPolicy overrides the default keyword/format policy.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithHasher overrides the credential hasher. The default is bcrypt; use
// password.NewLegacy only for stores populated by the historical scheme.
func WithHasher(h password.Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher enables fire-and-forget audit emission.
func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func New(users store.UserStore, opts ...Option) *Service {
	s := &Service{
		users:  users,
		policy: policy.New(policy.DefaultConfig()),
		hasher: password.NewBcrypt(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. The account-name is optional; when supplied
// its checks (format, keyword, uniqueness) run before the nickname checks so
// inputs violating several rules fail in a stable order.
func (s *Service) Register(ctx context.Context, account, plaintext, nickname, submittedCode, expectedCode string) (*models.User, error) {
	start := time.Now()

	if err := checkVerification(submittedCode, expectedCode); err != nil {
		return nil, err
	}
	if plaintext == "" || nickname == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidArgument,
			"password and nickname are required")
	}

	if account != "" {
		normalized, err := s.policy.NormalizeAccount(account)
		if err != nil {
			return nil, err
		}
		account = normalized
		if err := s.policy.CheckAccountKeywords(account); err != nil {
			return nil, err
		}
		taken, err := s.AccountTaken(ctx, account)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domainerrors.New(domainerrors.CodeAccountTaken,
				"account is already in use")
		}
	}

	if err := s.policy.CheckNickname(nickname); err != nil {
		return nil, err
	}
	if err := s.policy.CheckNicknameKeywords(nickname); err != nil {
		return nil, err
	}
	if err := s.policy.CheckPassword(plaintext); err != nil {
		return nil, err
	}
	taken, err := s.NicknameTaken(ctx, nickname)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domainerrors.New(domainerrors.CodeNicknameTaken,
			"nickname is already in use")
	}

	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to hash password")
	}
	id, err := s.users.AllocateID(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to allocate user id")
	}

	user := &models.User{
		ID:       id,
		Account:  account,
		Password: digest,
		Nickname: nickname,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, translateConflict(err, "failed to create user")
	}

	s.metrics.IncrementRegistered()
	s.metrics.ObserveRegister(start)
	s.emit(ctx, audit.ActionRegistered, user.ID)
	s.logger.InfoContext(ctx, "account registered", "user_id", user.ID)
	return user, nil
}

// Authenticate verifies credentials and returns the full account record.
// Unknown accounts and wrong passwords collapse into one error so callers
// cannot enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, account, plaintext, submittedCode, expectedCode string) (*models.User, error) {
	start := time.Now()

	if err := checkVerification(submittedCode, expectedCode); err != nil {
		return nil, err
	}

	account = strings.ToLower(account)
	digest, err := s.users.PasswordDigestByAccount(ctx, account)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "credential lookup failed")
	}
	if err != nil || s.hasher.Compare(plaintext, digest) != nil {
		s.metrics.IncrementLogin("failed")
		s.emit(ctx, audit.ActionLoginFailed, 0)
		return nil, domainerrors.New(domainerrors.CodeInvalidCredentials,
			"unknown account or wrong password")
	}

	user, err := s.users.FindByAccount(ctx, account)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "user lookup failed")
	}

	s.metrics.IncrementLogin("ok")
	s.metrics.ObserveLogin(start)
	s.emit(ctx, audit.ActionLogin, user.ID)
	return user, nil
}

// GetUser returns the full account record.
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "user not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "user lookup failed")
	}
	return user, nil
}

// GetPublicUser returns the privacy projection used for unauthenticated
// reads: no login alias, no credential digest.
func (s *Service) GetPublicUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// AccountTaken reports whether the normalized account-name is claimed.
func (s *Service) AccountTaken(ctx context.Context, account string) (bool, error) {
	n, err := s.users.CountByAccount(ctx, account)
	if err != nil {
		return false, domainerrors.Wrap(err, domainerrors.CodeInternal, "account lookup failed")
	}
	return n > 0, nil
}

// NicknameTaken reports whether the nickname is claimed.
func (s *Service) NicknameTaken(ctx context.Context, nick string) (bool, error) {
	n, err := s.users.CountByNickname(ctx, nick)
	if err != nil {
		return false, domainerrors.Wrap(err, domainerrors.CodeInternal, "nickname lookup failed")
	}
	return n > 0, nil
}

// checkVerification compares the submitted human-verification code against
// the expected one, case-insensitively. A session with no issued code never
// matches.
func checkVerification(submitted, expected string) error {
	if expected == "" || !strings.EqualFold(submitted, expected) {
		return domainerrors.New(domainerrors.CodeVerificationMismatch,
			"verification code does not match")
	}
	return nil
}

// translateConflict maps the store's unique-violation signal onto the
// canonical Taken error. The constraint fires when a concurrent writer wins
// the race after our pre-check passed.
func translateConflict(err error, fallback string) error {
	var conflict *store.Conflict
	if errors.As(err, &conflict) {
		if conflict.Field == "account" {
			return domainerrors.New(domainerrors.CodeAccountTaken, "account is already in use")
		}
		return domainerrors.New(domainerrors.CodeNicknameTaken, "nickname is already in use")
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, fallback)
}

func (s *Service) emit(ctx context.Context, action string, userID int64) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, audit.Event{
		Action:    action,
		UserID:    userID,
		SessionID: requestcontext.SessionID(ctx),
		RequestID: requestcontext.RequestID(ctx),
	})
}

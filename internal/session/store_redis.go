package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"passport/internal/account/models"
	"passport/pkg/platform/sentinel"
)

// Key prefixes. Session bindings and user snapshots are separate keys so a
// profile edit can refresh every session of the user in one write.
const (
	vcodeKeyPrefix   = "vcode:"
	sessionKeyPrefix = "session:"
	userKeyPrefix    = "user:"
)

// RedisGateway is the production session/verification store, shared across
// instances. Client lifecycle is managed by the caller.
type RedisGateway struct {
	client     *redis.Client
	codeTTL    time.Duration
	sessionTTL time.Duration
}

type RedisOption func(*RedisGateway)

// WithCodeTTL overrides how long an issued verification code stays valid.
func WithCodeTTL(ttl time.Duration) RedisOption {
	return func(g *RedisGateway) { g.codeTTL = ttl }
}

// WithSessionTTL overrides the authenticated session lifetime.
func WithSessionTTL(ttl time.Duration) RedisOption {
	return func(g *RedisGateway) { g.sessionTTL = ttl }
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisGateway {
	g := &RedisGateway{
		client:     client,
		codeTTL:    5 * time.Minute,
		sessionTTL: 30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *RedisGateway) VerificationCode(ctx context.Context, sessionID string) (string, error) {
	code, err := g.client.Get(ctx, vcodeKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get verification code: %w", err)
	}
	return code, nil
}

func (g *RedisGateway) SetVerificationCode(ctx context.Context, sessionID, code string) error {
	if err := g.client.Set(ctx, vcodeKeyPrefix+sessionID, code, g.codeTTL).Err(); err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}
	return nil
}

func (g *RedisGateway) ClearVerificationCode(ctx context.Context, sessionID string) error {
	if err := g.client.Del(ctx, vcodeKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear verification code: %w", err)
	}
	return nil
}

func (g *RedisGateway) Bind(ctx context.Context, sessionID string, user *models.User) error {
	snapshot, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("serialize session user: %w", err)
	}
	pipe := g.client.Pipeline()
	pipe.Set(ctx, sessionKeyPrefix+sessionID, strconv.FormatInt(user.ID, 10), g.sessionTTL)
	pipe.Set(ctx, userKeyPrefix+strconv.FormatInt(user.ID, 10), snapshot, g.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	return nil
}

func (g *RedisGateway) Clear(ctx context.Context, sessionID string) error {
	if err := g.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (g *RedisGateway) UserID(ctx context.Context, sessionID string) (int64, error) {
	raw, err := g.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve session: %w", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session binding %q: %w", sessionID, err)
	}
	return id, nil
}

func (g *RedisGateway) RefreshUser(ctx context.Context, user *models.User) error {
	snapshot, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("serialize session user: %w", err)
	}
	key := userKeyPrefix + strconv.FormatInt(user.ID, 10)
	if err := g.client.Set(ctx, key, snapshot, g.sessionTTL).Err(); err != nil {
		return fmt.Errorf("refresh session user: %w", err)
	}
	return nil
}

func (g *RedisGateway) User(ctx context.Context, userID int64) (*models.User, error) {
	raw, err := g.client.Get(ctx, userKeyPrefix+strconv.FormatInt(userID, 10)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session user: %w", err)
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("deserialize session user: %w", err)
	}
	return &user, nil
}

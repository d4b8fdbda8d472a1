package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"passport/internal/account/models"
	"passport/pkg/platform/sentinel"
)

// Postgres persists accounts in PostgreSQL. Expected schema:
//
//	CREATE SEQUENCE users_id_seq;
//	CREATE TABLE users (
//	    id           BIGINT PRIMARY KEY,
//	    account      TEXT,
//	    password     TEXT NOT NULL,
//	    nickname     TEXT NOT NULL,
//	    real_name    TEXT NOT NULL DEFAULT '',
//	    gender       INT,
//	    birth_year   INT,
//	    birth_month  INT,
//	    birth_day    INT,
//	    avatar_srv   TEXT NOT NULL DEFAULT '',
//	    avatar_path  TEXT NOT NULL DEFAULT '',
//	    summary      TEXT NOT NULL DEFAULT '',
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE UNIQUE INDEX users_account_key  ON users (account) WHERE account IS NOT NULL;
//	CREATE UNIQUE INDEX users_nickname_key ON users (nickname);
//
// The unique indexes are the authoritative uniqueness guard; the service's
// count-based pre-checks are only a fast-reject optimization.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, account, password, nickname, real_name, gender,
	birth_year, birth_month, birth_day, avatar_srv, avatar_path, summary,
	created_at, updated_at`

func (s *Postgres) AllocateID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT nextval('users_id_seq')`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("allocate user id: %w", err)
	}
	return id, nil
}

func (s *Postgres) Insert(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, account, password, nickname)
		VALUES ($1, NULLIF($2, ''), $3, $4)`,
		user.ID, user.Account, user.Password, user.Nickname)
	if err != nil {
		return translateUnique(err, "insert user")
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "find user by id")
}

func (s *Postgres) FindByAccount(ctx context.Context, account string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE account = $1`, account)
	return scanUser(row, "find user by account")
}

func (s *Postgres) CountByAccount(ctx context.Context, account string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM users WHERE account = $1`, account).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by account: %w", err)
	}
	return n, nil
}

func (s *Postgres) CountByNickname(ctx context.Context, nick string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM users WHERE nickname = $1`, nick).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by nickname: %w", err)
	}
	return n, nil
}

func (s *Postgres) PasswordDigestByAccount(ctx context.Context, account string) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx,
		`SELECT password FROM users WHERE account = $1`, account).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("password digest by account: %w", err)
	}
	return digest, nil
}

func (s *Postgres) UpdatePassword(ctx context.Context, id int64, digest string) error {
	return s.exec(ctx, "update password", `
		UPDATE users SET password = $2, updated_at = now() WHERE id = $1`,
		id, digest)
}

func (s *Postgres) UpdatePhoto(ctx context.Context, id int64, server, path string) error {
	return s.exec(ctx, "update photo", `
		UPDATE users SET avatar_srv = $2, avatar_path = $3, updated_at = now()
		WHERE id = $1`,
		id, server, path)
}

func (s *Postgres) UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) error {
	return s.exec(ctx, "update profile", `
		UPDATE users SET
			nickname    = COALESCE(NULLIF($2, ''), nickname),
			real_name   = COALESCE($3, real_name),
			gender      = COALESCE($4, gender),
			birth_year  = COALESCE($5, birth_year),
			birth_month = COALESCE($6, birth_month),
			birth_day   = COALESCE($7, birth_day),
			summary     = COALESCE($8, summary),
			updated_at  = now()
		WHERE id = $1`,
		id, upd.Nickname, upd.RealName, upd.Gender,
		upd.BirthYear, upd.BirthMonth, upd.BirthDay, upd.Summary)
}

func (s *Postgres) UpdateAccount(ctx context.Context, id int64, account, digest string) error {
	return s.exec(ctx, "update account", `
		UPDATE users SET account = $2, password = $3, updated_at = now()
		WHERE id = $1`,
		id, account, digest)
}

func (s *Postgres) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateUnique(err, op)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, op string) (*models.User, error) {
	var (
		u          models.User
		account    sql.NullString
		gender     sql.NullInt64
		birthYear  sql.NullInt64
		birthMonth sql.NullInt64
		birthDay   sql.NullInt64
	)
	err := row.Scan(&u.ID, &account, &u.Password, &u.Nickname, &u.RealName,
		&gender, &birthYear, &birthMonth, &birthDay,
		&u.AvatarSrv, &u.AvatarPath, &u.Summary,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.Account = account.String
	u.Gender = nullableInt(gender)
	u.BirthYear = nullableInt(birthYear)
	u.BirthMonth = nullableInt(birthMonth)
	u.BirthDay = nullableInt(birthDay)
	return &u, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// translateUnique maps PostgreSQL unique violations (23505) onto the store's
// Conflict error so the service surfaces the canonical Taken error even when
// a concurrent writer beats the count-based pre-check.
func translateUnique(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		field := "nickname"
		if pqErr.Constraint == "users_account_key" {
			field = "account"
		}
		return fmt.Errorf("%s: %w", op, &Conflict{Field: field})
	}
	return fmt.Errorf("%s: %w", op, err)
}

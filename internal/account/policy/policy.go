// Package policy implements the format and forbidden-keyword rules for
// account names, nicknames, passwords and birthdays. Everything here is a
// deterministic pure function over its inputs; storage is never touched.
package policy

import (
	"regexp"
	"strings"
	"unicode/utf8"

	domainerrors "passport/pkg/domain-errors"
)

var accountPattern = regexp.MustCompile(`^\w{5,50}$`)

const (
	nicknameMaxLen = 12
	passwordMinLen = 6
	passwordMaxLen = 20
)

// Config carries the forbidden-keyword sets. Keywords are matched as
// case-sensitive substrings.
type Config struct {
	ForbiddenAccountKeywords  []string
	ForbiddenNicknameKeywords []string
}

// DefaultConfig returns the reference keyword policy.
func DefaultConfig() Config {
	return Config{
		ForbiddenAccountKeywords:  []string{"songm"},
		ForbiddenNicknameKeywords: []string{"松美"},
	}
}

// Policy validates account fields against the configured rules.
type Policy struct {
	cfg Config
}

func New(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// NormalizeAccount validates the account-name shape and returns the
// lowercased canonical form. The name must be 5-50 word characters.
func (p *Policy) NormalizeAccount(raw string) (string, error) {
	if raw == "" || !accountPattern.MatchString(raw) {
		return "", domainerrors.New(domainerrors.CodeAccountFormat,
			"account must be 5-50 letters, digits or underscores")
	}
	return strings.ToLower(raw), nil
}

// CheckAccountKeywords rejects account names containing a forbidden keyword.
// Call with the normalized (lowercased) name.
func (p *Policy) CheckAccountKeywords(account string) error {
	if containsAny(account, p.cfg.ForbiddenAccountKeywords) {
		return domainerrors.New(domainerrors.CodeAccountKeyword,
			"account contains a reserved keyword")
	}
	return nil
}

// CheckNickname validates the nickname shape: non-empty, at most 12
// characters, any character class.
func (p *Policy) CheckNickname(nick string) error {
	if n := utf8.RuneCountInString(nick); n < 1 || n > nicknameMaxLen {
		return domainerrors.New(domainerrors.CodeNicknameFormat,
			"nickname must be 1-12 characters")
	}
	return nil
}

// CheckNicknameKeywords rejects nicknames containing a forbidden keyword.
func (p *Policy) CheckNicknameKeywords(nick string) error {
	if containsAny(nick, p.cfg.ForbiddenNicknameKeywords) {
		return domainerrors.New(domainerrors.CodeNicknameKeyword,
			"nickname contains a reserved keyword")
	}
	return nil
}

// CheckPassword validates the password shape: 6-20 characters, any class.
func (p *Policy) CheckPassword(password string) error {
	if n := utf8.RuneCountInString(password); n < passwordMinLen || n > passwordMaxLen {
		return domainerrors.New(domainerrors.CodePasswordFormat,
			"password must be 6-20 characters")
	}
	return nil
}

// CheckBirthday accepts either an entirely absent triple or one that forms a
// real calendar date. Partial triples are rejected. Validity is computed
// directly (month range, day-of-month table, leap-year rule) rather than by
// attempting a date construction and catching the failure.
func (p *Policy) CheckBirthday(year, month, day *int) error {
	if year == nil && month == nil && day == nil {
		return nil
	}
	if year == nil || month == nil || day == nil {
		return domainerrors.New(domainerrors.CodeBirthdayInvalid,
			"birthday requires year, month and day together")
	}
	if !validDate(*year, *month, *day) {
		return domainerrors.New(domainerrors.CodeBirthdayInvalid,
			"birthday is not a valid calendar date")
	}
	return nil
}

func validDate(year, month, day int) bool {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= daysIn(year, month)
}

func daysIn(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default: // February
		if isLeap(year) {
			return 29
		}
		return 28
	}
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

package httptransport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"passport/internal/account/password"
	"passport/internal/account/service"
	"passport/internal/account/store"
	"passport/internal/session"
)

// HandlerSuite drives full request flows against an in-memory stack. The
// client carries a cookie jar so the session handshake works like a browser.
type HandlerSuite struct {
	suite.Suite
	server *httptest.Server
	client *http.Client
}

func (s *HandlerSuite) SetupTest() {
	users := store.NewInMemory()
	sessions := session.NewInMemory()
	svc := service.New(users, service.WithHasher(password.NewLegacy()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(svc, sessions, logger, WithDevMode(true))
	s.server = httptest.NewServer(handler.Router())

	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	s.client = &http.Client{Jar: jar}
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path string, body any) (*http.Response, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// fetchCode asks /vcode for a fresh challenge; dev mode echoes the code.
func (s *HandlerSuite) fetchCode() string {
	resp, body := s.do(http.MethodGet, "/vcode", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	code, _ := body["code"].(string)
	s.Require().NotEmpty(code)
	return code
}

func (s *HandlerSuite) registerAlice() map[string]any {
	code := s.fetchCode()
	resp, body := s.do(http.MethodPost, "/register", map[string]any{
		"account":  "alice01",
		"password": "secret1",
		"nick":     "Alice",
		"vcode":    code,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	return body
}

func (s *HandlerSuite) login(account, pwd string) (*http.Response, map[string]any) {
	code := s.fetchCode()
	return s.do(http.MethodPost, "/login", map[string]any{
		"account":  account,
		"password": pwd,
		"vcode":    code,
	})
}

func (s *HandlerSuite) TestRegister() {
	s.Run("creates the account", func() {
		body := s.registerAlice()
		s.Equal("Alice", body["nick"])
		s.NotContains(body, "password")
	})

	s.Run("rejects a wrong verification code", func() {
		s.fetchCode()
		resp, body := s.do(http.MethodPost, "/register", map[string]any{
			"account":  "bob01",
			"password": "secret1",
			"nick":     "Bob",
			"vcode":    "WRONG",
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Equal("verification_mismatch", body["error"])
	})

	s.Run("a consumed code cannot be replayed", func() {
		code := s.fetchCode()
		resp, _ := s.do(http.MethodPost, "/register", map[string]any{
			"password": "secret1", "nick": "CodeUser1", "vcode": code,
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, body := s.do(http.MethodPost, "/register", map[string]any{
			"password": "secret1", "nick": "CodeUser2", "vcode": code,
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Equal("verification_mismatch", body["error"])
	})
}

func (s *HandlerSuite) TestLoginFlow() {
	s.registerAlice()

	s.Run("valid credentials open a member session", func() {
		resp, body := s.login("alice01", "secret1")
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Equal("Alice", body["nick"])

		resp, body = s.do(http.MethodGet, "/member/online", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Equal("Alice", body["nick"])
	})

	s.Run("logout closes the session", func() {
		resp, _ := s.do(http.MethodPost, "/logout", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		resp, body := s.do(http.MethodGet, "/member/online", nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		s.Equal("unauthorized", body["error"])
	})

	s.Run("wrong password is rejected without detail", func() {
		resp, body := s.login("alice01", "wrongpw")
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		s.Equal("invalid_credentials", body["error"])
	})
}

func (s *HandlerSuite) TestMemberRoutesRequireLogin() {
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/member/online"},
		{http.MethodPost, "/member/user/edit"},
		{http.MethodPut, "/member/user/password"},
	} {
		resp, body := s.do(route.method, route.path, map[string]any{})
		s.Equal(http.StatusUnauthorized, resp.StatusCode, route.path)
		s.Equal("unauthorized", body["error"], route.path)
	}
}

func (s *HandlerSuite) TestPublicProfile() {
	created := s.registerAlice()
	id := int64(created["user_id"].(float64))

	resp, body := s.do(http.MethodGet, fmt.Sprintf("/user/%d", id), nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Alice", body["nick"])
	s.NotContains(body, "account")

	resp, body = s.do(http.MethodGet, "/user/9999", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("not_found", body["error"])
}

func (s *HandlerSuite) TestProfileEdits() {
	s.registerAlice()
	resp, _ := s.login("alice01", "secret1")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	s.Run("edit updates profile and session cache", func() {
		resp, body := s.do(http.MethodPost, "/member/user/edit", map[string]any{
			"nick":        "Alicia",
			"summary":     "hello",
			"birth_year":  1990,
			"birth_month": 5,
			"birth_day":   20,
		})
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Equal("Alicia", body["nick"])

		resp, body = s.do(http.MethodGet, "/member/online", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Equal("Alicia", body["nick"])
	})

	s.Run("invalid birthday is rejected", func() {
		resp, body := s.do(http.MethodPost, "/member/user/edit", map[string]any{
			"nick": "Alicia", "birth_year": 2021, "birth_month": 2, "birth_day": 29,
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Equal("birthday_invalid", body["error"])
	})

	s.Run("password change requires the old password", func() {
		resp, body := s.do(http.MethodPut, "/member/user/password", map[string]any{
			"old_pwd": "wrongpw", "new_pwd": "fresher2",
		})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		s.Equal("wrong_old_password", body["error"])

		resp, _ = s.do(http.MethodPut, "/member/user/password", map[string]any{
			"old_pwd": "secret1", "new_pwd": "fresher2",
		})
		s.Equal(http.StatusOK, resp.StatusCode)
	})

	s.Run("avatar is stored as server plus path", func() {
		resp, _ := s.do(http.MethodPost, "/member/user/avatar", map[string]any{
			"avatar_server": "img3", "avatar_path": "avatars/alice.png",
		})
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		resp, body := s.do(http.MethodGet, "/member/online", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Equal("img3", body["avatar_server"])
	})
}

func (s *HandlerSuite) TestHealthz() {
	resp, body := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])
}

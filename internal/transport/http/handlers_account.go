package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"passport/internal/account/models"
	"passport/internal/account/service"
	"passport/internal/audit"
	"passport/internal/session"
	domainerrors "passport/pkg/domain-errors"
	"passport/pkg/platform/sentinel"
	"passport/pkg/requestcontext"
)

// Handler is the thin HTTP layer. It delegates to the identity service and
// the session gateway without embedding business logic; parameters are taken
// verbatim from request input.
type Handler struct {
	accounts *service.Service
	sessions session.Gateway
	audit    *audit.Publisher
	logger   *slog.Logger
	devMode  bool
}

type Option func(*Handler)

// WithAuditPublisher enables logout audit events from the transport layer.
func WithAuditPublisher(p *audit.Publisher) Option {
	return func(h *Handler) { h.audit = p }
}

// WithDevMode makes /vcode return the issued code in the response body.
func WithDevMode(enabled bool) Option {
	return func(h *Handler) { h.devMode = enabled }
}

func NewHandler(accounts *service.Service, sessions session.Gateway, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		accounts: accounts,
		sessions: sessions,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type registerRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	Nick     string `json:"nick"`
	Vcode    string `json:"vcode"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	expected := h.expectedCode(r)

	user, err := h.accounts.Register(ctx, req.Account, req.Password, req.Nick, req.Vcode, expected)
	if err != nil {
		writeError(w, err)
		return
	}

	h.clearCode(r)
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	Vcode    string `json:"vcode"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	expected := h.expectedCode(r)

	user, err := h.accounts.Authenticate(ctx, req.Account, req.Password, req.Vcode, expected)
	if err != nil {
		writeError(w, err)
		return
	}

	h.clearCode(r)
	sid := requestcontext.SessionID(ctx)
	if err := h.sessions.Bind(ctx, sid, user); err != nil {
		writeError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to persist session"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := requestcontext.SessionID(ctx)

	if userID, err := h.sessions.UserID(ctx, sid); err == nil && h.audit != nil {
		h.audit.Emit(ctx, audit.Event{
			Action:    audit.ActionLogout,
			UserID:    userID,
			SessionID: sid,
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	if err := h.sessions.Clear(ctx, sid); err != nil {
		writeError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to clear session"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVerificationCode issues a fresh challenge for the session. Image
// rendering is owned by a collaborating service; this endpoint only binds
// the expected code to the session.
func (h *Handler) handleVerificationCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := requestcontext.SessionID(ctx)

	code, err := session.NewCode()
	if err != nil {
		writeError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue code"))
		return
	}
	if err := h.sessions.SetVerificationCode(ctx, sid, code); err != nil {
		writeError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to store code"))
		return
	}

	resp := map[string]string{"status": "issued"}
	if h.devMode {
		resp["code"] = code
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, domainerrors.New(domainerrors.CodeInvalidArgument, "invalid user id"))
		return
	}

	user, err := h.accounts.GetPublicUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleOnline returns the caller's own account, preferring the session
// cache and falling back to the store on a miss.
func (h *Handler) handleOnline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	if user, err := h.sessions.User(ctx, userID); err == nil {
		writeJSON(w, http.StatusOK, user)
		return
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		h.logger.WarnContext(ctx, "session cache read failed", "error", err)
	}

	user, err := h.accounts.GetUser(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.refreshSessionUser(r, user)
	writeJSON(w, http.StatusOK, user)
}

type editProfileRequest struct {
	Nick       string  `json:"nick"`
	RealName   *string `json:"real_name"`
	Gender     *int    `json:"gender"`
	BirthYear  *int    `json:"birth_year"`
	BirthMonth *int    `json:"birth_month"`
	BirthDay   *int    `json:"birth_day"`
	Summary    *string `json:"summary"`
}

func (h *Handler) handleEditProfile(w http.ResponseWriter, r *http.Request) {
	var req editProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	user, err := h.accounts.EditBasicProfile(ctx, requestcontext.UserID(ctx), models.ProfileUpdate{
		Nickname:   req.Nick,
		RealName:   req.RealName,
		Gender:     req.Gender,
		BirthYear:  req.BirthYear,
		BirthMonth: req.BirthMonth,
		BirthDay:   req.BirthDay,
		Summary:    req.Summary,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.refreshSessionUser(r, user)
	writeJSON(w, http.StatusOK, user)
}

type editAvatarRequest struct {
	AvatarServer string `json:"avatar_server"`
	AvatarPath   string `json:"avatar_path"`
}

func (h *Handler) handleEditAvatar(w http.ResponseWriter, r *http.Request) {
	var req editAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if err := h.accounts.EditPhoto(ctx, userID, req.AvatarServer, req.AvatarPath); err != nil {
		writeError(w, err)
		return
	}

	h.reloadAndRefresh(r, userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type editAccountRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

func (h *Handler) handleEditAccount(w http.ResponseWriter, r *http.Request) {
	var req editAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if err := h.accounts.EditAccount(ctx, userID, req.Account, req.Password); err != nil {
		writeError(w, err)
		return
	}

	h.reloadAndRefresh(r, userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type editPasswordRequest struct {
	OldPassword string `json:"old_pwd"`
	NewPassword string `json:"new_pwd"`
}

func (h *Handler) handleEditPassword(w http.ResponseWriter, r *http.Request) {
	var req editPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if err := h.accounts.EditPassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type editGenderRequest struct {
	Gender int `json:"gender"`
}

func (h *Handler) handleEditGender(w http.ResponseWriter, r *http.Request) {
	var req editGenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if err := h.accounts.EditGender(ctx, userID, req.Gender); err != nil {
		writeError(w, err)
		return
	}

	h.reloadAndRefresh(r, userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type editRealNameRequest struct {
	RealName string `json:"real_name"`
}

func (h *Handler) handleEditRealName(w http.ResponseWriter, r *http.Request) {
	var req editRealNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if err := h.accounts.EditRealName(ctx, userID, req.RealName); err != nil {
		writeError(w, err)
		return
	}

	h.reloadAndRefresh(r, userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type editSummaryRequest struct {
	Summary string `json:"summary"`
}

func (h *Handler) handleEditSummary(w http.ResponseWriter, r *http.Request) {
	var req editSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if err := h.accounts.EditSummary(ctx, userID, req.Summary); err != nil {
		writeError(w, err)
		return
	}

	h.reloadAndRefresh(r, userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// expectedCode fetches the code previously issued to the session; an absent
// code yields the empty string, which never matches a submission.
func (h *Handler) expectedCode(r *http.Request) string {
	ctx := r.Context()
	code, err := h.sessions.VerificationCode(ctx, requestcontext.SessionID(ctx))
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		h.logger.WarnContext(ctx, "verification code lookup failed", "error", err)
	}
	return code
}

// clearCode drops the consumed challenge. Best-effort: a stale code expires
// on its own TTL.
func (h *Handler) clearCode(r *http.Request) {
	ctx := r.Context()
	if err := h.sessions.ClearVerificationCode(ctx, requestcontext.SessionID(ctx)); err != nil {
		h.logger.WarnContext(ctx, "verification code clear failed", "error", err)
	}
}

// refreshSessionUser pushes the updated snapshot into the session cache.
// Fire-and-forget: staleness only affects read-path freshness.
func (h *Handler) refreshSessionUser(r *http.Request, user *models.User) {
	ctx := r.Context()
	if err := h.sessions.RefreshUser(ctx, user); err != nil {
		h.logger.WarnContext(ctx, "session user refresh failed", "user_id", user.ID, "error", err)
	}
}

// reloadAndRefresh reloads the account after a targeted field update so the
// session cache reflects the write.
func (h *Handler) reloadAndRefresh(r *http.Request, userID int64) {
	ctx := r.Context()
	user, err := h.accounts.GetUser(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "session user reload failed", "user_id", userID, "error", err)
		return
	}
	h.refreshSessionUser(r, user)
}

package httptransport

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	domainerrors "passport/pkg/domain-errors"
	"passport/pkg/platform/sentinel"
	"passport/pkg/requestcontext"
)

const sessionCookie = "PASSPORT_SID"

// withRequestContext stamps every request with a request ID, the request
// time, and the caller's session ID. A session cookie is issued on first
// contact so the verification-code handshake has a stable key before login.
func (h *Handler) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())

		requestID := uuid.NewString()
		ctx = requestcontext.WithRequestID(ctx, requestID)
		w.Header().Set("X-Request-Id", requestID)

		sid := ""
		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
			sid = c.Value
		} else {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx = requestcontext.WithSessionID(ctx, sid)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireMember resolves the session to its authenticated user and rejects
// unauthenticated callers. Member handlers read the user ID from the
// request context.
func (h *Handler) requireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sid := requestcontext.SessionID(ctx)

		userID, err := h.sessions.UserID(ctx, sid)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "login required"))
				return
			}
			writeError(w, domainerrors.Wrap(err, domainerrors.CodeInternal, "session lookup failed"))
			return
		}

		next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, userID)))
	})
}

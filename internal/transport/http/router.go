package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the public and member route trees. Member routes sit
// behind requireMember; everything shares the request-context middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(h.withRequestContext)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/vcode", h.handleVerificationCode)
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/user/{id}", h.handleGetUser)

	r.Route("/member", func(r chi.Router) {
		r.Use(h.requireMember)

		r.Get("/online", h.handleOnline)
		r.Post("/user/edit", h.handleEditProfile)
		r.Post("/user/avatar", h.handleEditAvatar)
		r.Put("/user/account", h.handleEditAccount)
		r.Put("/user/password", h.handleEditPassword)
		r.Put("/user/gender", h.handleEditGender)
		r.Put("/user/realname", h.handleEditRealName)
		r.Put("/user/summary", h.handleEditSummary)
	})

	return r
}

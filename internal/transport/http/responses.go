package httptransport

import (
	"encoding/json"
	"net/http"

	domainerrors "passport/pkg/domain-errors"
)

// errorEnvelope is the JSON error body. Code is stable for clients to match
// on; Message is suitable for direct display.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation to HTTP responses.
// Infrastructure failures collapse into a generic internal error so details
// never leak.
func writeError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	writeJSON(w, domainerrors.ToHTTPStatus(code), errorEnvelope{
		Error:   string(code),
		Message: domainerrors.MessageOf(err),
	})
}

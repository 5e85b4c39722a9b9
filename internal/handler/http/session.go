package http

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/handler/http/response"
)

// requireSession reads the session AuthRequired placed in the context and
// writes a 401 when it is missing.
func requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return auth.Session{}, false
	}
	return session, true
}

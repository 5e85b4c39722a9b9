package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock/internal/pkg/feed"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	attendancesvc "github.com/cmlabs-hris/timeclock/internal/service/attendance"
	"github.com/go-chi/jwtauth/v5"
)

// AuthHandler covers the session surface this service owns. Sign-in itself
// happens at the identity provider that issues the tokens.
type AuthHandler interface {
	Me(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	jwtService jwt.Service
	registry   *attendancesvc.Registry
	hub        *feed.Hub
}

func NewAuthHandler(jwtService jwt.Service, registry *attendancesvc.Registry, hub *feed.Hub) AuthHandler {
	return &AuthHandlerImpl{
		jwtService: jwtService,
		registry:   registry,
		hub:        hub,
	}
}

// Me implements AuthHandler.
func (a *AuthHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	response.Success(w, session)
}

// Logout implements AuthHandler. It revokes the access token, ends the
// user's live streams and drops the cached attendance state.
func (a *AuthHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	token := jwtauth.TokenFromHeader(r)
	if token == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	if err := a.jwtService.RevokeToken(r.Context(), token); err != nil {
		slog.Error("Logout revoke error", "error", err)
		response.HandleError(w, err)
		return
	}

	a.hub.Publish(feed.Event{
		Topic:  feed.TopicSessions,
		Op:     feed.OpSessionEnded,
		UserID: session.UserID,
	})
	a.registry.Forget(session.UserID)

	slog.Info("User logged out", "user_id", session.UserID)
	response.SuccessWithMessage(w, "Logged out successfully", nil)
}

package auth

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrInvalidRole      = errors.New("role must be user or admin")
	ErrMissingUserID    = errors.New("user_id claim is missing")
	ErrAdminRequired    = errors.New("admin privilege required")
	ErrSessionNotFound  = errors.New("no session in request context")
	ErrRevocationFailed = errors.New("token revocation store unavailable")
)

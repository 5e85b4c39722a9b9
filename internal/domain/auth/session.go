package auth

import (
	"context"
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Session is the authenticated identity a request acts for. It is issued
// outside this service and only ever read here.
type Session struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrMissingUserID
	}
	if !s.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// SessionFromClaims reads user_id and role out of decoded token claims.
func SessionFromClaims(claims map[string]interface{}) (Session, error) {
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)

	s := Session{UserID: userID, Role: Role(role)}
	if err := s.Validate(); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return s, nil
}

type contextKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

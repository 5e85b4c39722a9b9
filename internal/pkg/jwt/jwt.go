package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenLifetime = 5 * time.Minute
)

type Service interface {
	GenerateAccessToken(session auth.Session) (token string, expiresAt int64, err error)
	GenerateSSEToken(session auth.Session) (token string, expiresIn int, err error)
	ValidateSSEToken(ctx context.Context, tokenString string) (auth.Session, error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(ctx context.Context, token string) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
	revoked                   RevocationStore
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService signs HS256 tokens. A nil store keeps revocations in memory.
func NewJWTService(secretKey string, accessTokenExpirationTime string, store RevocationStore) Service {
	if store == nil {
		store = NewMemoryRevocationStore()
	}
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revoked:                   store,
	}
}

func (j *JWTService) GenerateAccessToken(session auth.Session) (token string, expiresAt int64, err error) {
	if err := session.Validate(); err != nil {
		return "", 0, err
	}
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": session.UserID,
		"role":    string(session.Role),
		"type":    TokenTypeAccess,
		"exp":     expiresAt,
	})
	return tokenString, expiresAt, err
}

// RevokeToken blocks a token until its own expiry.
func (j *JWTService) RevokeToken(ctx context.Context, token string) error {
	until := time.Now().Add(time.Hour)
	if parsed, err := j.tokenAuth.Decode(token); err == nil && !parsed.Expiration().IsZero() {
		until = parsed.Expiration()
	}
	if err := j.revoked.Revoke(ctx, token, until); err != nil {
		return fmt.Errorf("%w: %w", auth.ErrRevocationFailed, err)
	}
	return nil
}

func (j *JWTService) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := j.revoked.IsRevoked(ctx, token)
	if err != nil {
		return false, fmt.Errorf("%w: %w", auth.ErrRevocationFailed, err)
	}
	return revoked, nil
}

// GenerateSSEToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateSSEToken(session auth.Session) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(sseTokenLifetime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": session.UserID,
		"role":    string(session.Role),
		"type":    TokenTypeSSE,
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenLifetime / time.Second), nil
}

// ValidateSSEToken validates an SSE token and returns the session it was issued for
func (j *JWTService) ValidateSSEToken(ctx context.Context, tokenString string) (auth.Session, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return auth.Session{}, fmt.Errorf("%w: %w", auth.ErrInvalidToken, err)
	}

	claims, err := token.AsMap(ctx)
	if err != nil {
		return auth.Session{}, auth.ErrInvalidToken
	}

	if tokenType, ok := claims["type"].(string); !ok || tokenType != TokenTypeSSE {
		return auth.Session{}, auth.ErrInvalidToken
	}

	return auth.SessionFromClaims(claims)
}

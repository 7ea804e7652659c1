// Package auth provides JWT session tokens, password hashing and the HTTP
// middleware that turns a bearer token into an engine.Session.
package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/warp/leave-engine/engine"
)

// TokenManager issues and validates HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims is the JWT payload. Role is re-expanded into capabilities when the
// token comes back in, so capability changes only require a role change.
type Claims struct {
	Role engine.Role `json:"role"`
	jwt.RegisteredClaims
}

// Generate signs a token for the user. Returns the token and its expiry.
func (tm *TokenManager) Generate(userID string, role engine.Role) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Parse validates a token and rebuilds the session.
func (tm *TokenManager) Parse(tokenStr string) (engine.Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return engine.Session{}, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return engine.Session{}, errors.New("invalid token claims")
	}
	if !claims.Role.Valid() {
		return engine.Session{}, errors.New("unknown role in token")
	}
	return engine.NewSession(claims.Subject, claims.Role), nil
}

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

// IssueToken signs an HS256 token carrying the session id and role.
func IssueToken(secret string, s *Session, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sid":  s.ID,
		"role": string(s.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(expiry).Unix(),
	}
	if s.Authenticated() {
		claims["sub"] = s.UserID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies raw and returns its session id.
func ParseToken(secret, raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return SessionIDFromClaims(token)
}

func SessionIDFromClaims(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrInvalidToken
	}
	return sid, nil
}

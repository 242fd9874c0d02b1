package services

import (
	"errors"
	"fmt"
	"time"

	"collab-service/internal/websocket"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService signs and verifies the HS256 bearer tokens used by both the
// REST middleware and WebSocket admission. One secret, one claim layout.
type TokenService struct {
	secret string
	expire time.Duration
}

func NewTokenService(secret string, expire time.Duration) *TokenService {
	return &TokenService{secret: secret, expire: expire}
}

// Generate creates a signed token carrying the user's identity claims.
func (s *TokenService) Generate(userID uint, username, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"email":    email,
		"exp":      time.Now().Add(s.expire).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify parses and validates a token, resolving it to a principal. Any
// parse error, bad signature, or expired token fails closed.
func (s *TokenService) Verify(tokenString string) (*websocket.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}
	username, _ := claims["username"].(string)

	return &websocket.Principal{
		UserID:   uint(userID),
		Username: username,
	}, nil
}

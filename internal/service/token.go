package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an access token
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// issueToken signs a token binding the username.
// Tokens carry no expiry unless JWTTTL is set.
func (s *Service) issueToken(username string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.config.JWTTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.config.JWTTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// Authenticate verifies a bearer token and returns the caller's username
func (s *Service) Authenticate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrUnauthenticated
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidCredential
	}
	if claims.Username == "" {
		return "", ErrInvalidCredential
	}
	return claims.Username, nil
}

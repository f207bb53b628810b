package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenDuration  = 15 * time.Minute
	RefreshTokenDuration = 7 * 24 * time.Hour
)

type Claims struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	TokenID   string `json:"jti"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(secret, userID, username string) (string, error) {
	return generateToken(secret, userID, username, "access", AccessTokenDuration, "")
}

func GenerateRefreshToken(secret, userID, username, tokenID string) (string, error) {
	return generateToken(secret, userID, username, "refresh", RefreshTokenDuration, tokenID)
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func generateToken(secret, userID, username, tokenType string, duration time.Duration, tokenID string) (string, error) {
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		TokenID:   tokenID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        tokenID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

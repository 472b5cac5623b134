package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

// AdminClaims are the claims carried by an admin session token. Tokens are
// minted only after a successful OTP verification, so possession of a valid
// token proves a completed OTP round-trip.
type AdminClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HMAC admin session tokens. There is no
// refresh or revocation lifecycle; tokens simply expire.
type TokenService struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewTokenService(secret string, tokenTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &TokenService{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}, nil
}

// Generate mints a signed session token for a verified admin.
func (s *TokenService) Generate(email, name, role string) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Email: email,
		Name:  name,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, nil
}

// Parse validates a session token and returns its claims.
// Invalid, expired or foreign tokens map to apperrors.ErrUnauthorized.
func (s *TokenService) Parse(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid admin token", apperrors.ErrUnauthorized)
	}
	return claims, nil
}

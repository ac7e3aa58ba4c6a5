package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeProducer allows pushing assignments and operating desks.
const ScopeProducer = "producer"

var (
	// ErrInvalidToken is returned for tokens that fail parsing or validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSubject is returned when minting a token without a subject.
	ErrMissingSubject = errors.New("subject is required")
)

// Claims represents JWT claims for producer authentication.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// GenerateToken creates a new producer token for subject (e.g. "desk-3" or "kiosk").
func GenerateToken(cfg *JWTConfig, subject string) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}

	now := time.Now()
	claims := Claims{
		Scope: ScopeProducer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// ValidateToken parses and validates a producer token.
func ValidateToken(cfg *JWTConfig, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Scope != ScopeProducer {
		return nil, fmt.Errorf("%w: scope %q not allowed", ErrInvalidToken, claims.Scope)
	}

	return claims, nil
}

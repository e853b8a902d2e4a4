package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTLeeway is the clock skew tolerated on token time claims.
const DefaultJWTLeeway = 30 * time.Second

// JWTConfig holds configuration for bearer token verification. Tokens are
// issued by the identity provider; this service only checks them.
type JWTConfig struct {
	Secret string
	Issuer string
	Leeway time.Duration
}

// NewJWTConfig reads the verification settings from the environment:
// JWT_SECRET or JWT_SECRET_FILE (one is required), JWT_ISSUER and
// JWT_LEEWAY_SECONDS.
func NewJWTConfig() (*JWTConfig, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}

	leeway := DefaultJWTLeeway
	if v := strings.TrimSpace(os.Getenv("JWT_LEEWAY_SECONDS")); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_LEEWAY_SECONDS: %v", err)
		}
		if secs < 0 {
			return nil, fmt.Errorf("JWT_LEEWAY_SECONDS must not be negative, got: %d", secs)
		}
		leeway = time.Duration(secs) * time.Second
	}

	return &JWTConfig{
		Secret: secret,
		Issuer: strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		Leeway: leeway,
	}, nil
}

// jwtSecret prefers the inline secret and falls back to a mounted file.
func jwtSecret() (string, error) {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return s, nil
	}
	path := os.Getenv("JWT_SECRET_FILE")
	if path == "" {
		return "", fmt.Errorf("JWT_SECRET is required but not set")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read JWT_SECRET_FILE: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", fmt.Errorf("JWT_SECRET_FILE %s is empty", path)
	}
	return s, nil
}

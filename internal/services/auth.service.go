package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "rigcheck"

// AuthService signs and validates build-owner tokens
type AuthService struct {
	secretKey   []byte
	tokenExpiry time.Duration
}

// OwnerClaims identifies the user who owns saved builds
type OwnerClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// NewAuthService creates the service. With an empty secret the key is read from
// keyFile, or generated and persisted there on first use.
func NewAuthService(secret, keyFile string, tokenExpiry time.Duration) (*AuthService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		var err error
		secret, err = loadOrCreateSecret(keyFile)
		if err != nil {
			return nil, err
		}
	}
	if len(secret) < 32 {
		slog.Warn("auth secret is shorter than 32 bytes; HMAC-SHA256 keys should be at least 32", "length", len(secret))
	}
	if tokenExpiry <= 0 {
		tokenExpiry = 30 * 24 * time.Hour
	}
	return &AuthService{
		secretKey:   []byte(secret),
		tokenExpiry: tokenExpiry,
	}, nil
}

func loadOrCreateSecret(keyFile string) (string, error) {
	if keyFile == "" {
		return "", errors.New("auth secret or key file is required")
	}
	if data, err := os.ReadFile(keyFile); err == nil && len(strings.TrimSpace(string(data))) > 0 {
		slog.Info("loaded persisted auth secret", "path", keyFile)
		return strings.TrimSpace(string(data)), nil
	}

	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate auth secret: %w", err)
	}
	secret := hex.EncodeToString(randomBytes)

	if err := os.MkdirAll(filepath.Dir(keyFile), 0700); err != nil {
		return "", fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(keyFile, []byte(secret), 0600); err != nil {
		return "", fmt.Errorf("persist auth secret to %s: %w", keyFile, err)
	}
	slog.Info("generated and persisted auth secret", "path", keyFile)
	return secret, nil
}

// GenerateToken creates a signed token for userID
func (a *AuthService) GenerateToken(userID string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("user id is required")
	}

	now := time.Now()
	expiresAt := now.Add(a.tokenExpiry)
	claims := OwnerClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies and parses a token
func (a *AuthService) ValidateToken(tokenString string) (*OwnerClaims, error) {
	claims := &OwnerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}

// Package token issues and verifies the access tokens the meeting API
// accepts. Tokens are HS256 JWTs carrying the actor id as subject and a
// role claim used by the authorization layer.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/expohall/expohall/internal/errors"
	"github.com/expohall/expohall/internal/meeting"
)

const minSigningKeySize = 32

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Issuer     string `env:"EXPOHALL_TOKEN_ISSUER"`
	Audience   string `env:"EXPOHALL_TOKEN_AUDIENCE"`
	SigningKey string `env:"EXPOHALL_TOKEN_SIGNING_KEY"`
}

// Config defines how access tokens are issued and verified.
type Config struct {
	Issuer   string
	Audience string
	Key      []byte
	Now      func() time.Time
}

// Claims captures the validated identity carried by an access token.
type Claims struct {
	ActorID   string
	Role      meeting.Role
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	JWTID     string
}

// accessClaims is the internal claims type used for JWT parsing.
type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// LoadConfigFromEnv reads token configuration from the environment.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	signingKey := strings.TrimSpace(raw.SigningKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("EXPOHALL_TOKEN_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("EXPOHALL_TOKEN_AUDIENCE is required")
	}
	if signingKey == "" {
		return Config{}, fmt.Errorf("EXPOHALL_TOKEN_SIGNING_KEY is required")
	}
	keyBytes, err := decodeBase64(signingKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode token signing key: %w", err)
	}
	if len(keyBytes) < minSigningKeySize {
		return Config{}, fmt.Errorf("token signing key must be at least %d bytes", minSigningKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer:   issuer,
		Audience: audience,
		Key:      keyBytes,
		Now:      now,
	}, nil
}

// IssueInput describes the token to mint.
type IssueInput struct {
	ActorID string
	Role    meeting.Role
	TTL     time.Duration
	JWTID   string
}

// Issue mints a signed access token for the given actor.
func Issue(input IssueInput, cfg Config) (string, error) {
	actorID := strings.TrimSpace(input.ActorID)
	if actorID == "" {
		return "", errors.New("actor id is required")
	}
	if input.Role == meeting.RoleUnspecified {
		return "", errors.New("role is required")
	}
	if input.TTL <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) < minSigningKeySize {
		return "", errors.New("token issuer is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	now := cfg.Now().UTC()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(input.TTL)),
			ID:        strings.TrimSpace(input.JWTID),
		},
		Role: meeting.RoleLabel(input.Role),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a signed access token and validates its claims.
func Verify(tokenString string, cfg Config) (Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "access token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) < minSigningKeySize {
		return Claims{}, errors.New("token verifier is not configured")
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeTokenInvalid,
			"access token issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeTokenInvalid,
			"access token audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "access token subject is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "access token exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "access token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Claims{}, apperrors.New(apperrors.CodeTokenInvalid, "access token not active yet")
	}

	role := meeting.RoleFromLabel(parsed.Role)
	if role == meeting.RoleUnspecified {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeTokenInvalid,
			"access token role is required",
			map[string]string{"Field": "role"},
		)
	}

	claims := Claims{
		ActorID:   parsed.Subject,
		Role:      role,
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		ExpiresAt: exp,
		JWTID:     parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrSignatureInvalid) {
		return apperrors.New(apperrors.CodeTokenInvalid, "access token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeTokenInvalid, "access token alg is invalid")
	}
	return apperrors.New(apperrors.CodeTokenInvalid, "access token is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

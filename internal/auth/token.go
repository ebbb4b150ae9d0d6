package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/bookshelf/bookshelf/internal/model"
)

// MinSigningKeyLength is the minimum HMAC key size in bytes.
const MinSigningKeyLength = 32

var (
	// ErrInvalidToken indicates a token failed signature, issuer, audience,
	// expiry or claim checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidTokenConfig indicates TokenConfig cannot produce a usable manager.
	ErrInvalidTokenConfig = errors.New("invalid token configuration")
)

// Claims is the payload of an identity token.
// The subject id travels both as the registered "sub" claim and as "userId".
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig holds the signing settings for a TokenManager.
type TokenConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	TTL        time.Duration
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// TokenManager mints and validates HS256 identity tokens.
// It is immutable after construction and safe for concurrent use.
type TokenManager struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// NewTokenManager validates cfg and returns a TokenManager.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	switch {
	case len(cfg.SigningKey) < MinSigningKeyLength:
		return nil, fmt.Errorf("%w: signing key must be at least %d bytes", ErrInvalidTokenConfig, MinSigningKeyLength)
	case cfg.Issuer == "":
		return nil, fmt.Errorf("%w: issuer is required", ErrInvalidTokenConfig)
	case cfg.Audience == "":
		return nil, fmt.Errorf("%w: audience is required", ErrInvalidTokenConfig)
	case cfg.TTL <= 0:
		return nil, fmt.Errorf("%w: ttl must be positive", ErrInvalidTokenConfig)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	return &TokenManager{
		key:      key,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(now),
		),
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue mints a signed token for the subject and returns it with its exp.
func (m *TokenManager) Issue(subjectID int64, email, displayName string) (string, time.Time, error) {
	if subjectID <= 0 {
		return "", time.Time{}, ErrNoIdentity
	}

	now := m.now()
	subject := strconv.FormatInt(subjectID, 10)

	claims := Claims{
		UserID: subject,
		Email:  email,
		Name:   displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   subject,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Validate verifies the token and resolves the identity it carries.
// Every failure wraps ErrInvalidToken.
func (m *TokenManager) Validate(tokenString string) (*model.Identity, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, m.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	identity, err := ResolveIdentity(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return identity, nil
}

func (m *TokenManager) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return m.key, nil
}

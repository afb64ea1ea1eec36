// Package auth provides JWT issuance and validation, password hashing, the
// request access guard, and GitHub sign-in for the liber API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client registers (POST /auth/register) or logs in (POST /auth/login)
//  2. Server answers with an access token and a refresh token
//  3. Client sends "Authorization: Bearer <access token>" on every call
//  4. RequireAuth validates the token and puts its claims in the context
//  5. When the access token expires the client posts the refresh token to
//     POST /auth/refresh and receives a fresh pair
//
// Tokens are stateless. Nothing is persisted on issue, so a token stays
// valid until it expires; there is no revocation list.
//
// JWT STRUCTURE:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<user id>","email":...,"handle":...,"name":...,"typ":"access","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "liber"

// Default lifetimes. The refresh lifetime matches the one-year expiry the
// web client expects.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 365 * 24 * time.Hour
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Identity is the user data embedded in every token.
type Identity struct {
	UserID string
	Email  string
	Handle string
	Name   string
}

// Claims is the JWT payload. "sub" (Subject) carries the user id.
type Claims struct {
	Email  string    `json:"email"`
	Handle string    `json:"handle"`
	Name   string    `json:"name"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Identity returns the user data carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID: c.Subject,
		Email:  c.Email,
		Handle: c.Handle,
		Name:   c.Name,
	}
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used for both signing and verification, and the
// lifetimes applied to each token type.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService with the given secret and the
// default lifetimes. The secret must be at least 16 characters.
func NewTokenService(secret string) (*TokenService, error) {
	return NewTokenServiceWithTTL(secret, DefaultAccessTTL, DefaultRefreshTTL)
}

// NewTokenServiceWithTTL creates a TokenService with explicit lifetimes.
func NewTokenServiceWithTTL(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// IssuePair signs a new access token and a new refresh token for id.
func (s *TokenService) IssuePair(id Identity) (access, refresh string, err error) {
	access, err = s.GenerateWithDuration(id, TokenAccess, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.GenerateWithDuration(id, TokenRefresh, s.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// GenerateWithDuration signs a token of the given type expiring after d.
// Every token gets a random jti, so two tokens minted in the same second for
// the same user still differ.
func (s *TokenService) GenerateWithDuration(id Identity, typ TokenType, d time.Duration) (string, error) {
	if id.UserID == "" {
		return "", errors.New("auth: token subject must not be empty")
	}

	now := s.now()
	c := Claims{
		Email:  id.Email,
		Handle: id.Handle,
		Name:   id.Name,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string of the expected type.
//
// VALIDATION CHECKS:
//   - Signature is valid and the algorithm is HS256
//   - Token is not expired (exp is required)
//   - Issuer is "liber"
//   - "typ" matches want (an access token cannot be used to refresh)
//   - Subject is present
func (s *TokenService) Validate(tokenStr string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Type != want {
		return nil, fmt.Errorf("auth: expected %s token, got %q", want, c.Type)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return c, nil
}

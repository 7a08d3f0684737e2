package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken means a token failed signature, expiry, or shape checks.
var ErrInvalidToken = errors.New("invalid token")

const (
	// TypeAccess marks short-lived tokens sent as Bearer credentials.
	TypeAccess = "access"

	// TypeRefresh marks long-lived tokens exchanged for new access tokens.
	TypeRefresh = "refresh"
)

// Claims carried by every token this service signs.
//
// Subject is the username. ID (jti) identifies the token itself and is
// the unit of blacklisting and of refresh-token persistence.
type Claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Token is a signed JWT together with the claims inside it.
type Token struct {
	Signed string
	Claims Claims
}

// Issuer signs and verifies HS256 tokens with a single shared secret.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer creates an Issuer.
//
// # Args
//
// - secret: HMAC signing key, from config. Never derived in code.
//
// - accessTTL, refreshTTL: lifetimes of issued tokens.
func NewIssuer(secret []byte, accessTTL time.Duration, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     secret,
		issuer:     "iris-api",
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL is the lifetime of issued access tokens.
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// Access issues a new access token for username.
func (i *Issuer) Access(username string) (Token, error) {
	return i.issue(username, TypeAccess, i.accessTTL)
}

// Refresh issues a new refresh token for username.
func (i *Issuer) Refresh(username string) (Token, error) {
	return i.issue(username, TypeRefresh, i.refreshTTL)
}

func (i *Issuer) issue(username string, tokenType string, ttl time.Duration) (Token, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Signed: signed, Claims: claims}, nil
}

// Verify parses signed and checks its signature, expiry, and token
// type. Every way a token can fail verification is reported as
// ErrInvalidToken (with the cause joined in), so callers can map it
// to 401 with a single errors.Is.
func (i *Issuer) Verify(signed string, tokenType string) (Claims, error) {
	claims := Claims{}
	tok, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
	if !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.ID == "" || claims.Subject == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

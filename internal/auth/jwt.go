// Package auth validates the bearer tokens presented to the feed service.
// Tokens are issued by the account service; this package only verifies them.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type constants for the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Default leeway for token validation.
const DefaultLeeway = 30 * time.Second

var (
	// ErrInvalidToken is returned when token validation fails.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")

	// ErrWrongTokenType is returned when a non-access token is presented.
	ErrWrongTokenType = errors.New("token is not an access token")
)

// Claims represents the JWT claims of an access token.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"` // Token type: "access" or "refresh"
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// Verifier validates HS256 access tokens.
// Supports dual-key rotation: tokens validate against either the current or
// the previous secret.
type Verifier struct {
	currentSecret  []byte
	previousSecret []byte
	leeway         time.Duration
}

// NewVerifier creates a Verifier. Set previousSecret to empty string if no
// rotation is in progress.
func NewVerifier(currentSecret, previousSecret string) *Verifier {
	v := &Verifier{
		currentSecret: []byte(currentSecret),
		leeway:        DefaultLeeway,
	}
	if previousSecret != "" {
		v.previousSecret = []byte(previousSecret)
	}
	return v
}

// WithLeeway returns a copy of v using the given clock skew leeway.
func (v *Verifier) WithLeeway(leeway time.Duration) *Verifier {
	cp := *v
	cp.leeway = leeway
	return &cp
}

// Validate parses and validates an access token, returning its claims.
func (v *Verifier) Validate(tokenString string) (*Claims, error) {
	claims, err := v.parse(tokenString, v.currentSecret)
	if err != nil && v.previousSecret != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		claims, err = v.parse(tokenString, v.previousSecret)
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *Verifier) parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// Validate the signing method is HS256
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithLeeway(v.leeway))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

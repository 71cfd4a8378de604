package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-at-least-32-chars!"

func signToken(t *testing.T, secret, subject, typ string, expiresIn time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
		Type: typ,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestValidate(t *testing.T) {
	v := NewVerifier(testSecret, "")

	tests := []struct {
		name    string
		token   string
		wantErr error
		wantSub string
	}{
		{"valid access token", signToken(t, testSecret, "user-123", TokenTypeAccess, 15*time.Minute), nil, "user-123"},
		{"refresh token rejected", signToken(t, testSecret, "user-123", TokenTypeRefresh, time.Hour), ErrWrongTokenType, ""},
		{"expired", signToken(t, testSecret, "user-123", TokenTypeAccess, -time.Hour), ErrExpiredToken, ""},
		{"wrong secret", signToken(t, "another-secret-key-32-characters!!", "user-123", TokenTypeAccess, time.Minute), ErrInvalidToken, ""},
		{"empty subject", signToken(t, testSecret, "", TokenTypeAccess, time.Minute), ErrInvalidToken, ""},
		{"garbage", "not.a.jwt", ErrInvalidToken, ""},
		{"empty", "", ErrInvalidToken, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.Validate(tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if claims.UserID() != tt.wantSub {
				t.Errorf("UserID() = %q, want %q", claims.UserID(), tt.wantSub)
			}
		})
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	v := NewVerifier(testSecret, "")
	token := signToken(t, testSecret, "user-123", TokenTypeAccess, time.Minute)

	tampered := token[:len(token)-2] + "xx"
	if _, err := v.Validate(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	v := NewVerifier(testSecret, "")
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Type: TokenTypeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := v.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for HS512, got %v", err)
	}
}

func TestValidate_Leeway(t *testing.T) {
	// Expired 10s ago: inside the default 30s leeway, outside a 1s leeway.
	token := signToken(t, testSecret, "user-123", TokenTypeAccess, -10*time.Second)

	if _, err := NewVerifier(testSecret, "").Validate(token); err != nil {
		t.Errorf("expected token within leeway to validate, got %v", err)
	}
	if _, err := NewVerifier(testSecret, "").WithLeeway(time.Second).Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken with 1s leeway, got %v", err)
	}
}

func TestValidate_KeyRotation(t *testing.T) {
	oldSecret := "old-secret-key-at-least-32-chars!!"
	newSecret := "new-secret-key-at-least-32-chars!!"
	v := NewVerifier(newSecret, oldSecret)

	for _, secret := range []string{newSecret, oldSecret} {
		token := signToken(t, secret, "user-123", TokenTypeAccess, time.Minute)
		if _, err := v.Validate(token); err != nil {
			t.Errorf("expected token signed with rotated secret to validate, got %v", err)
		}
	}

	retired := signToken(t, "retired-secret-key-32-characters!!", "user-123", TokenTypeAccess, time.Minute)
	if _, err := v.Validate(retired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for unknown secret, got %v", err)
	}
}

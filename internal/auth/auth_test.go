package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"curio/internal/auth"
)

const secret = "test-secret"

// mint builds a token the way the external identity provider would.
func mint(t *testing.T, secret, userID, role string, ttl time.Duration) string {
	t.Helper()
	claims := auth.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	tok := mint(t, secret, "u-1", auth.RoleStaff, time.Hour)
	claims, err := auth.VerifyToken(secret, tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "u-1" || claims.Role != auth.RoleStaff {
		t.Fatalf("bad claims: %+v", claims)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	tok := mint(t, "other-secret", "u-1", auth.RoleUser, time.Hour)
	if _, err := auth.VerifyToken(secret, tok); err == nil {
		t.Fatal("token signed with wrong secret accepted")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	tok := mint(t, secret, "u-1", auth.RoleUser, -time.Minute)
	if _, err := auth.VerifyToken(secret, tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestVerifyToken_MissingUserID(t *testing.T) {
	tok := mint(t, secret, "", auth.RoleUser, time.Hour)
	if _, err := auth.VerifyToken(secret, tok); err == nil {
		t.Fatal("token without user id accepted")
	}
}

func TestFromBearer(t *testing.T) {
	tok := mint(t, secret, "u-1", auth.RoleUser, time.Hour)
	if _, err := auth.FromBearer(secret, "Bearer "+tok); err != nil {
		t.Fatal(err)
	}
	if _, err := auth.FromBearer(secret, tok); err == nil {
		t.Fatal("raw token without Bearer prefix accepted")
	}
	if _, err := auth.FromBearer(secret, ""); err == nil {
		t.Fatal("empty header accepted")
	}
}

package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestJWTSecret is the signing secret used by handler tests.
const TestJWTSecret = "test-secret-key-12345678901234567890123456789012"

// Token signs an HS256 token for userID with optional display claims
// (given_name, family_name, name, picture).
func Token(t testing.TB, userID string, claims map[string]any) string {
	t.Helper()
	mc := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		mc[k] = v
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

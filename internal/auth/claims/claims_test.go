package claims

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestDecodeReturnsNilForMalformedTokens(t *testing.T) {
	malformed := []string{
		"",
		"not-a-jwt",
		"one.two",
		"a.b.c.d",
		"!!!.???.###",
		"eyJhbGciOiJIUzI1NiJ9.not%base64.sig",
	}
	for _, token := range malformed {
		if got := Decode(token); got != nil {
			t.Fatalf("Decode(%q) = %+v, want nil", token, got)
		}
		if !IsExpired(token) {
			t.Fatalf("IsExpired(%q) = false, want true for malformed token", token)
		}
		if !IsExpiringSoon(token, 30*time.Second) {
			t.Fatalf("IsExpiringSoon(%q) = false, want true for malformed token", token)
		}
	}
}

func TestDecodeReadsIdentityAndExpiry(t *testing.T) {
	exp := time.Now().Add(1 * time.Hour).Truncate(time.Second)
	token := mintToken(t, jwt.MapClaims{
		"sub":   "user-42",
		"email": "ada@example.com",
		"name":  "Ada",
		"exp":   exp.Unix(),
	})

	decoded := Decode(token)
	if decoded == nil {
		t.Fatalf("Decode() = nil for well-formed token")
	}
	if decoded.Subject != "user-42" {
		t.Fatalf("expected subject user-42, got %q", decoded.Subject)
	}
	if decoded.Email != "ada@example.com" {
		t.Fatalf("expected email claim, got %q", decoded.Email)
	}
	if !decoded.ExpiresAt.Equal(exp) {
		t.Fatalf("expected exp %v, got %v", exp, decoded.ExpiresAt)
	}
}

func TestExpiredTokenIsExpired(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(-1 * time.Minute).Unix(),
	})
	if !IsExpired(token) {
		t.Fatalf("IsExpired() = false for token with past exp")
	}
	if !IsExpiringSoon(token, 0) {
		t.Fatalf("IsExpiringSoon(0) = false for token with past exp")
	}
}

func TestFreshTokenIsNeitherExpiredNorExpiringSoon(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(1 * time.Hour).Unix(),
	})
	if IsExpired(token) {
		t.Fatalf("IsExpired() = true for token expiring in an hour")
	}
	if IsExpiringSoon(token, 30*time.Second) {
		t.Fatalf("IsExpiringSoon(30s) = true for token expiring in an hour")
	}
}

func TestTokenInsideBufferIsExpiringSoonButNotExpired(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(10 * time.Second).Unix(),
	})
	if !IsExpiringSoon(token, 30*time.Second) {
		t.Fatalf("IsExpiringSoon(30s) = false for token expiring in 10s")
	}
	if IsExpired(token) {
		t.Fatalf("IsExpired() = true for token still valid for 10s")
	}
}

func TestTokenWithoutExpFailsClosed(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "user-42"})
	if Decode(token) == nil {
		t.Fatalf("Decode() = nil for well-formed token without exp")
	}
	if !IsExpired(token) {
		t.Fatalf("IsExpired() = false for token without exp claim")
	}
}

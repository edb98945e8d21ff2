package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret = "this-is-a-test-secret-with-32-bytes!"
	testExpiry = 24 * time.Hour
)

func newTestJWTService(t *testing.T) *jwtService {
	t.Helper()
	svc, err := NewJWTService(testSecret, testExpiry)
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	return svc.(*jwtService)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNewJWTService(t *testing.T) {
	svc, err := NewJWTService(testSecret, testExpiry)
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	if got := svc.GetExpiry(); got != testExpiry {
		t.Errorf("GetExpiry() = %v, want %v", got, testExpiry)
	}
}

func TestNewJWTService_InvalidArguments(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		expiry time.Duration
	}{
		{name: "empty secret", secret: "", expiry: testExpiry},
		{name: "short secret", secret: "short", expiry: testExpiry},
		{name: "zero expiry", secret: testSecret, expiry: 0},
		{name: "negative expiry", secret: testSecret, expiry: -time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewJWTService(tt.secret, tt.expiry)
			if err == nil {
				t.Error("NewJWTService() should fail")
			}
			if svc != nil {
				t.Error("NewJWTService() should return nil service on error")
			}
		})
	}
}

// =============================================================================
// GenerateToken / ValidateToken Tests
// =============================================================================

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateToken("user-123", "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("token has %d parts, want 3", len(parts))
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID() != "user-123" {
		t.Errorf("UserID() = %q, want user-123", claims.UserID())
	}
	if claims.Email != "ada@example.com" {
		t.Errorf("Email = %q, want ada@example.com", claims.Email)
	}
	if claims.ID == "" {
		t.Error("token should carry a jti")
	}

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime != testExpiry {
		t.Errorf("token lifetime = %v, want %v", lifetime, testExpiry)
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	svc := newTestJWTService(t)

	first, _ := svc.GenerateToken("user-123", "ada@example.com")
	second, _ := svc.GenerateToken("user-123", "ada@example.com")

	if first == second {
		t.Error("tokens issued in the same second should still differ")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService(t)
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err := svc.GenerateToken("user-123", "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService(t)
	other, _ := NewJWTService("another-secret-that-is-32-bytes-long!", testExpiry)

	token, _ := other.GenerateToken("user-123", "ada@example.com")

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateToken_Tampered(t *testing.T) {
	svc := newTestJWTService(t)
	token, _ := svc.GenerateToken("user-123", "ada@example.com")

	parts := strings.Split(token, ".")
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:            "mallory@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "admin", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	forgedString, _ := forged.SigningString()
	forgedParts := strings.Split(forgedString, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if _, err := svc.ValidateToken(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	svc := newTestJWTService(t)
	claims := Claims{
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))

	for name, token := range map[string]string{"none": none, "HS512": hs512} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestValidateToken_RequiresExpiryAndSubject(t *testing.T) {
	svc := newTestJWTService(t)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
	}).SignedString([]byte(testSecret))
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))

	for name, token := range map[string]string{"no expiry": noExpiry, "no subject": noSubject} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestJWTService(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateToken(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}

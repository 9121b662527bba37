package jwt

import (
	"errors"
	"testing"
	"time"

	"remitgate/internal/core/domain"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func testConfig() Config {
	return Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "remitgate-auth",
		Audience:      "remitgate-staff",
		AccessTTL:     24 * time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

var testIdentity = Identity{ID: 7, EmployeeID: "EMP001", Username: "jsmith", Role: "EMPLOYEE"}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager(testConfig())

	token, expiresAt, err := m.IssueAccess(testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if d := time.Until(expiresAt); d < 23*time.Hour || d > 24*time.Hour {
		t.Fatalf("unexpected access lifetime %v", d)
	}

	claims, err := m.Validate(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	id, err := claims.Identity()
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if id != testIdentity {
		t.Fatalf("expected %+v, got %+v", testIdentity, id)
	}
	if claims.IssuedAt == nil {
		t.Fatal("expected issued-at claim")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := NewManager(testConfig())

	token, expiresAt, err := m.IssueRefresh(testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if d := time.Until(expiresAt); d < 6*24*time.Hour {
		t.Fatalf("unexpected refresh lifetime %v", d)
	}

	claims, err := m.Validate(token, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "7" || claims.EmployeeID != "EMP001" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Role != "" {
		t.Fatal("refresh tokens must not carry the role")
	}
}

func TestTypeMismatch(t *testing.T) {
	m := NewManager(testConfig())

	access, _, _ := m.IssueAccess(testIdentity)
	if _, err := m.Validate(access, TokenTypeRefresh); !errors.Is(err, domain.ErrTokenTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}

	refresh, _, _ := m.IssueRefresh(testIdentity)
	if _, err := m.Validate(refresh, TokenTypeAccess); !errors.Is(err, domain.ErrTokenTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(testConfig()).WithClock(fixedClock(issuedAt))

	token, _, err := m.IssueAccess(testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	justBefore := m.WithClock(fixedClock(issuedAt.Add(24*time.Hour - time.Second)))
	if _, err := justBefore.Validate(token, TokenTypeAccess); err != nil {
		t.Fatalf("expected valid before expiry, got %v", err)
	}

	after := m.WithClock(fixedClock(issuedAt.Add(24*time.Hour + time.Second)))
	if _, err := after.Validate(token, TokenTypeAccess); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestSignatureInvalid(t *testing.T) {
	m := NewManager(testConfig())
	token, _, _ := m.IssueAccess(testIdentity)

	other := testConfig()
	other.AccessSecret = "another-secret"
	if _, err := NewManager(other).Validate(token, TokenTypeAccess); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid, got %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.Validate(tampered, TokenTypeAccess); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid for tampered token, got %v", err)
	}

	if _, err := m.Validate("not-a-token", TokenTypeAccess); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid for garbage, got %v", err)
	}
}

func TestRejectsUnexpectedAlgorithm(t *testing.T) {
	claims := Claims{
		EmployeeID: "EMP001",
		TokenType:  TokenTypeAccess,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "7",
			Issuer:    "remitgate-auth",
			Audience:  gojwt.ClaimStrings{"remitgate-staff"},
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewManager(testConfig()).Validate(token, TokenTypeAccess); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid for alg=none, got %v", err)
	}
}

func TestIssuerAudienceMismatch(t *testing.T) {
	token, _, _ := NewManager(testConfig()).IssueAccess(testIdentity)

	wrongIssuer := testConfig()
	wrongIssuer.Issuer = "someone-else"
	if _, err := NewManager(wrongIssuer).Validate(token, TokenTypeAccess); !errors.Is(err, domain.ErrIssuerAudienceMismatch) {
		t.Fatalf("expected issuer mismatch, got %v", err)
	}

	wrongAudience := testConfig()
	wrongAudience.Audience = "customers"
	if _, err := NewManager(wrongAudience).Validate(token, TokenTypeAccess); !errors.Is(err, domain.ErrIssuerAudienceMismatch) {
		t.Fatalf("expected audience mismatch, got %v", err)
	}
}

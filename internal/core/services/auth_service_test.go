package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"remitgate/internal/adapters/persistence/repositories"
	"remitgate/internal/core/domain"
	"remitgate/internal/pkg/jwt"
	"remitgate/internal/pkg/password"
	"remitgate/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type authFixture struct {
	db      *gorm.DB
	svc     *AuthService
	tokens  *jwt.Manager
	auditor *testutil.RecordingAuditor
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db := testutil.NewDB(t)
	tokens := jwt.NewManager(jwt.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "remitgate-auth",
		Audience:      "remitgate-staff",
	})
	auditor := &testutil.RecordingAuditor{}
	svc := NewAuthService(
		repositories.NewEmployeeRepository(db),
		password.NewHasher(testutil.FastHashParams, 2),
		tokens,
		auditor,
		DefaultLockoutPolicy,
		testutil.Log(),
	)
	return &authFixture{db: db, svc: svc, tokens: tokens, auditor: auditor}
}

func loginInput(pw string) *LoginInput {
	return &LoginInput{Username: "jsmith", EmployeeID: "EMP001", Password: pw, IPAddress: "10.0.0.1"}
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	e := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith")

	// a prior failure must be reset by the success
	if _, err := f.svc.Login(ctx, loginInput("wrong")); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	resp, err := f.svc.Login(ctx, loginInput(testutil.DemoPassword))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Employee.EmployeeID != "EMP001" || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected response %+v", resp)
	}

	got := testutil.ReloadEmployee(t, f.db, e.ID)
	if got.FailedLoginAttempts != 0 || got.LockedUntil != nil || got.LastLoginAt == nil {
		t.Fatalf("counters not reset: %+v", got)
	}

	claims, err := f.tokens.Validate(resp.AccessToken, jwt.TokenTypeAccess)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if claims.Subject == "" || claims.EmployeeID != "EMP001" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := f.tokens.Validate(resp.RefreshToken, jwt.TokenTypeRefresh); err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	if _, err := f.tokens.Validate(resp.AccessToken, jwt.TokenTypeRefresh); !errors.Is(err, domain.ErrTokenTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}

	if f.auditor.Count(domain.AuditLoginSuccess) != 1 {
		t.Fatal("expected a login success event")
	}
}

func TestLoginRejectsMalformedInputWithoutTouchingStore(t *testing.T) {
	f := newAuthFixture(t)
	e := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith")

	cases := []struct {
		name  string
		input *LoginInput
		field string
	}{
		{"short username", &LoginInput{Username: "js", EmployeeID: "EMP001", Password: "x"}, "username"},
		{"lowercase employee id", &LoginInput{Username: "jsmith", EmployeeID: "emp001", Password: "x"}, "employee_id"},
		{"long employee id", &LoginInput{Username: "jsmith", EmployeeID: "EMP00100001", Password: "x"}, "employee_id"},
		{"empty password", &LoginInput{Username: "jsmith", EmployeeID: "EMP001"}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), tc.input)
			var fe *domain.FieldError
			if !errors.As(err, &fe) || fe.Field != tc.field {
				t.Fatalf("expected field error on %s, got %v", tc.field, err)
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if got := testutil.ReloadEmployee(t, f.db, e.ID); got.FailedLoginAttempts != 0 {
		t.Fatalf("counter moved on malformed input: %d", got.FailedLoginAttempts)
	}
	if len(f.auditor.Events()) != 0 {
		t.Fatal("malformed input must not be audited as a login attempt")
	}
}

func TestLoginUnknownAndInactiveLookLikeWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	testutil.CreateEmployee(t, f.db, "EMP002", "mdoe", testutil.Inactive())

	_, err := f.svc.Login(ctx, loginInput(testutil.DemoPassword))
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown employee: expected invalid credentials, got %v", err)
	}

	_, err = f.svc.Login(ctx, &LoginInput{Username: "mdoe", EmployeeID: "EMP002", Password: testutil.DemoPassword})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("inactive employee: expected invalid credentials, got %v", err)
	}
}

func TestLoginLockout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	e := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith")
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	for i := 1; i <= 5; i++ {
		if _, err := f.svc.Login(ctx, loginInput("Wrong123!")); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i, err)
		}
	}

	got := testutil.ReloadEmployee(t, f.db, e.ID)
	if got.FailedLoginAttempts != 5 || got.LockedUntil == nil {
		t.Fatalf("expected lock after 5 failures, got %+v", got)
	}
	if !got.LockedUntil.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected lock expiry %v", got.LockedUntil)
	}
	if f.auditor.Count(domain.AuditAccountLocked) != 1 {
		t.Fatal("expected one account locked event")
	}

	// even the right password is refused while locked
	if _, err := f.svc.Login(ctx, loginInput(testutil.DemoPassword)); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected account locked, got %v", err)
	}
	if got := testutil.ReloadEmployee(t, f.db, e.ID); got.FailedLoginAttempts != 5 {
		t.Fatalf("counter moved while locked: %d", got.FailedLoginAttempts)
	}

	// after expiry the correct password works again
	now = now.Add(16 * time.Minute)
	if _, err := f.svc.Login(ctx, loginInput(testutil.DemoPassword)); err != nil {
		t.Fatalf("login after expiry: %v", err)
	}
}

func TestLoginTimeoutLeavesNoState(t *testing.T) {
	f := newAuthFixture(t)
	e := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.Login(ctx, loginInput("wrong")); !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if got := testutil.ReloadEmployee(t, f.db, e.ID); got.FailedLoginAttempts != 0 {
		t.Fatalf("counter moved on timeout: %d", got.FailedLoginAttempts)
	}
}

func TestRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	e := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith")

	resp, err := f.svc.Login(ctx, loginInput(testutil.DemoPassword))
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := f.svc.RefreshToken(ctx, resp.RefreshToken, "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := f.tokens.Validate(pair.AccessToken, jwt.TokenTypeAccess); err != nil {
		t.Fatalf("rotated access token: %v", err)
	}
	if pair.RefreshToken == resp.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	if _, err := f.svc.RefreshToken(ctx, resp.AccessToken, ""); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("access token as refresh: expected invalid refresh token, got %v", err)
	}
	if _, err := f.svc.RefreshToken(ctx, "garbage", ""); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("garbage: expected invalid refresh token, got %v", err)
	}

	if err := f.db.Model(e).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.svc.RefreshToken(ctx, pair.RefreshToken, ""); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("deactivated: expected invalid refresh token, got %v", err)
	}
	if f.auditor.Count(domain.AuditRefreshFailed) != 3 {
		t.Fatalf("expected 3 refresh failures audited, got %d", f.auditor.Count(domain.AuditRefreshFailed))
	}
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	e := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith", testutil.WithLimit("2500.50"))

	resp, err := f.svc.Login(ctx, loginInput(testutil.DemoPassword))
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	actor, err := f.svc.Authenticate(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if actor.ID != e.ID || actor.Role != domain.RoleEmployee || !actor.VerificationLimit.Equal(decimal.RequireFromString("2500.50")) {
		t.Fatalf("unexpected actor %+v", actor)
	}

	if _, err := f.svc.Authenticate(ctx, resp.RefreshToken); !errors.Is(err, domain.ErrTokenTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}

	f.db.Model(e).Update("is_active", false)
	if _, err := f.svc.Authenticate(ctx, resp.AccessToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for inactive employee, got %v", err)
	}
}

func TestUnlockEmployee(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	e := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith")
	admin := testutil.CreateEmployee(t, f.db, "ADM001", "admin", testutil.WithRole(domain.RoleAdmin))

	for i := 0; i < 5; i++ {
		f.svc.Login(ctx, loginInput("wrong"))
	}

	if err := f.svc.UnlockEmployee(ctx, e.Context(), e.ID, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := f.svc.UnlockEmployee(ctx, admin.Context(), 9999, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.svc.UnlockEmployee(ctx, admin.Context(), e.ID, ""); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := f.svc.Login(ctx, loginInput(testutil.DemoPassword)); err != nil {
		t.Fatalf("login after unlock: %v", err)
	}
	if f.auditor.Count(domain.AuditEmployeeUnlock) != 1 || f.auditor.Count(domain.AuditAccessDenied) != 1 {
		t.Fatalf("unexpected audit trail %+v", f.auditor.Events())
	}
}

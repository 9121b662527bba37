package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to TransactionStatus
		want     bool
	}{
		{StatusPending, StatusVerified, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusProcessing, false},
		{StatusVerified, StatusProcessing, true},
		{StatusVerified, StatusPending, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusRejected, StatusVerified, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	for _, s := range []TransactionStatus{StatusCompleted, StatusRejected, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if StatusPending.IsTerminal() {
		t.Error("PENDING should not be terminal")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" supervisor "); !ok || r != RoleSupervisor {
		t.Fatalf("expected SUPERVISOR, got %q %v", r, ok)
	}
	if _, ok := ParseRole("MANAGER"); ok {
		t.Fatal("MANAGER must be rejected")
	}
}

func TestMayApprove(t *testing.T) {
	limit := decimal.RequireFromString("100000")
	emp := EmployeeContext{Role: RoleEmployee, VerificationLimit: limit}

	if !emp.MayApprove(decimal.RequireFromString("100000.00")) {
		t.Error("amount equal to the limit must be allowed")
	}
	if emp.MayApprove(decimal.RequireFromString("100000.01")) {
		t.Error("amount above the limit must be refused")
	}

	sup := EmployeeContext{Role: RoleSupervisor, VerificationLimit: decimal.Zero}
	if !sup.MayApprove(decimal.RequireFromString("5000000")) {
		t.Error("supervisor bypasses the limit")
	}
}

func TestBoundaryPatterns(t *testing.T) {
	tests := []struct {
		name  string
		ok    bool
		match bool
	}{
		{"EMP001", true, EmployeeIDPattern.MatchString("EMP001")},
		{"emp001", false, EmployeeIDPattern.MatchString("emp001")},
		{"EMP01", false, EmployeeIDPattern.MatchString("EMP01")},
		{"jsmith", true, UsernamePattern.MatchString("jsmith")},
		{"j s", false, UsernamePattern.MatchString("j s")},
		{"a@bank.test", true, EmailPattern.MatchString("a@bank.test")},
		{"a@bank", false, EmailPattern.MatchString("a@bank")},
	}
	for _, tt := range tests {
		if tt.match != tt.ok {
			t.Errorf("%q: got %v, want %v", tt.name, tt.match, tt.ok)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	var fe *FieldError
	err := fmt.Errorf("login: %w", NewFieldError("password", "is required"))
	if !errors.Is(err, ErrInvalidInput) || !errors.As(err, &fe) || fe.Field != "password" {
		t.Fatalf("field error must unwrap to ErrInvalidInput, got %v", err)
	}

	var be *BatchError
	err = &BatchError{InvalidIDs: []string{"a", "b"}}
	if !errors.Is(err, ErrPartialBatchInvalid) || !errors.As(err, &be) || len(be.InvalidIDs) != 2 {
		t.Fatalf("batch error must unwrap to ErrPartialBatchInvalid, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if FromContext(ctx.Err()) != ErrTimeout {
		t.Fatal("cancelled context maps to ErrTimeout")
	}
	if FromContext(errors.New("boom")) != nil {
		t.Fatal("other errors pass through as nil")
	}
}

package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Role represents an employee role in the system
type Role string

const (
	RoleEmployee   Role = "EMPLOYEE"
	RoleAdmin      Role = "ADMIN"
	RoleSupervisor Role = "SUPERVISOR"
)

// ParseRole returns the Role matching s, or false for anything outside the closed set
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleEmployee, RoleAdmin, RoleSupervisor:
		return r, true
	}
	return "", false
}

// CanBypassLimit reports whether the role may approve amounts above its verification limit
func (r Role) CanBypassLimit() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

// CanManageEmployees reports whether the role may unlock other employees
func (r Role) CanManageEmployees() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

// TransactionStatus is the verification state of a transaction
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "PENDING"
	StatusVerified   TransactionStatus = "VERIFIED"
	StatusProcessing TransactionStatus = "PROCESSING"
	StatusCompleted  TransactionStatus = "COMPLETED"
	StatusRejected   TransactionStatus = "REJECTED"
	StatusCancelled  TransactionStatus = "CANCELLED"
)

// AllStatuses lists every transaction status in lifecycle order
var AllStatuses = []TransactionStatus{
	StatusPending,
	StatusVerified,
	StatusProcessing,
	StatusCompleted,
	StatusRejected,
	StatusCancelled,
}

var transitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusVerified, StatusRejected, StatusCancelled},
	StatusVerified:   {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// IsTerminal reports whether no further transition leaves s
func (s TransactionStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is a legal step
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// EmployeeContext is the authenticated actor attached to a protected request
type EmployeeContext struct {
	ID                uint
	EmployeeID        string
	Username          string
	Role              Role
	IsActive          bool
	VerificationLimit decimal.Decimal
}

// MayApprove reports whether the actor is allowed to approve the given amount
func (e EmployeeContext) MayApprove(amount decimal.Decimal) bool {
	if e.Role.CanBypassLimit() {
		return true
	}
	return amount.LessThanOrEqual(e.VerificationLimit)
}

// Boundary patterns enforced before any store access
var (
	EmployeeIDPattern = regexp.MustCompile(`^[A-Z0-9]{6,10}$`)
	UsernamePattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)
	EmailPattern      = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

const (
	// MaxRejectionReasonLength bounds the stored rejection reason
	MaxRejectionReasonLength = 500

	// DefaultRejectionReason is stored when a reject carries no notes
	DefaultRejectionReason = "Rejected during employee verification"

	// MaxBatchSize is the largest batch accepted for settlement submission
	MaxBatchSize = 50
)

package services

import (
	"context"
	"errors"
	"time"

	"remitgate/internal/adapters/persistence/models"
	"remitgate/internal/adapters/persistence/repositories"
	"remitgate/internal/core/domain"
	"remitgate/internal/pkg/jwt"
	"remitgate/internal/pkg/password"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LockoutPolicy controls brute-force protection
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy locks for 15 minutes after 5 failures
var DefaultLockoutPolicy = LockoutPolicy{Threshold: 5, Duration: 15 * time.Minute}

// AuthService handles authentication business logic
type AuthService struct {
	employeeRepo repositories.EmployeeRepository
	hasher       *password.Hasher
	tokens       *jwt.Manager
	audit        Auditor
	policy       LockoutPolicy
	now          Clock
	log          *logrus.Entry
}

// NewAuthService creates a new auth service
func NewAuthService(
	employeeRepo repositories.EmployeeRepository,
	hasher *password.Hasher,
	tokens *jwt.Manager,
	audit Auditor,
	policy LockoutPolicy,
	log *logrus.Entry,
) *AuthService {
	if policy.Threshold < 1 {
		policy.Threshold = DefaultLockoutPolicy.Threshold
	}
	if policy.Duration <= 0 {
		policy.Duration = DefaultLockoutPolicy.Duration
	}
	return &AuthService{
		employeeRepo: employeeRepo,
		hasher:       hasher,
		tokens:       tokens,
		audit:        audit,
		policy:       policy,
		now:          utcNow,
		log:          log,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username   string `json:"username"`
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
	IPAddress  string `json:"-"`
}

// Validate checks the input shape before any store access
func (in *LoginInput) Validate() error {
	switch {
	case !domain.UsernamePattern.MatchString(in.Username):
		return domain.NewFieldError("username", "must be 3-30 characters of letters, digits, '_' or '-'")
	case !domain.EmployeeIDPattern.MatchString(in.EmployeeID):
		return domain.NewFieldError("employee_id", "must be 6-10 uppercase letters or digits")
	case in.Password == "":
		return domain.NewFieldError("password", "is required")
	}
	return nil
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Employee *models.EmployeeResponse `json:"employee"`
	TokenPair
}

// Login authenticates an employee
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Shape check, no store access on failure
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := domain.FromContext(ctx.Err()); err != nil {
		return nil, err
	}

	// 2. Find active employee by the credential pair
	employee, err := s.employeeRepo.FindActiveByUsernameAndEmployeeID(ctx, input.Username, input.EmployeeID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeError(s.log, "find employee", err)
		}
		// same cost as a real verification
		if _, err := s.hasher.Verify(ctx, input.Password, "", ""); err != nil {
			return nil, domain.ErrTimeout
		}
		s.audit.Record(ctx, domain.AuditEvent{
			Type:       domain.AuditLoginFailed,
			ActorRef:   input.EmployeeID,
			Outcome:    domain.OutcomeFailure,
			Details:    map[string]interface{}{"reason": "unknown_identity", "username": input.Username},
			RemoteAddr: input.IPAddress,
		})
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Locked accounts never reach password verification
	now := s.now()
	if employee.IsAccountLocked(now) {
		s.recordBlocked(ctx, employee, input.IPAddress)
		return nil, domain.ErrAccountLocked
	}

	// 4. Verify password
	ok, err := s.hasher.Verify(ctx, input.Password, employee.Salt, employee.PasswordHash)
	if err != nil {
		return nil, domain.ErrTimeout
	}
	if !ok {
		return nil, s.registerFailure(ctx, employee, now, input.IPAddress)
	}

	// 5. Issue tokens before persisting so a signing failure leaves no state
	tokens, err := s.generateTokens(employee)
	if err != nil {
		return nil, err
	}

	if err := s.employeeRepo.RegisterSuccessfulLogin(ctx, employee.ID, now); err != nil {
		if errors.Is(err, repositories.ErrLocked) {
			s.recordBlocked(ctx, employee, input.IPAddress)
			return nil, domain.ErrAccountLocked
		}
		return nil, storeError(s.log, "register login", err)
	}
	employee.FailedLoginAttempts = 0
	employee.LockedUntil = nil
	employee.LastLoginAt = &now

	s.audit.Record(ctx, domain.AuditEvent{
		Type:       domain.AuditLoginSuccess,
		ActorID:    &employee.ID,
		ActorRef:   employee.EmployeeID,
		Outcome:    domain.OutcomeSuccess,
		RemoteAddr: input.IPAddress,
	})
	s.log.WithField("employee_id", employee.EmployeeID).Info("✅ Employee logged in")

	return &AuthResponse{
		Employee:  employee.ToResponse(),
		TokenPair: *tokens,
	}, nil
}

func (s *AuthService) registerFailure(ctx context.Context, employee *models.Employee, now time.Time, ip string) error {
	failure, err := s.employeeRepo.RegisterFailedLogin(ctx, employee.ID, now, s.policy.Threshold, s.policy.Duration)
	if err != nil {
		if errors.Is(err, repositories.ErrLocked) {
			s.recordBlocked(ctx, employee, ip)
			return domain.ErrAccountLocked
		}
		return storeError(s.log, "register failed login", err)
	}

	s.audit.Record(ctx, domain.AuditEvent{
		Type:       domain.AuditLoginFailed,
		ActorID:    &employee.ID,
		ActorRef:   employee.EmployeeID,
		Outcome:    domain.OutcomeFailure,
		Details:    map[string]interface{}{"reason": "bad_password", "attempts": failure.Attempts},
		RemoteAddr: ip,
	})

	if failure.LockedUntil != nil {
		s.audit.Record(ctx, domain.AuditEvent{
			Type:       domain.AuditAccountLocked,
			ActorID:    &employee.ID,
			ActorRef:   employee.EmployeeID,
			Outcome:    domain.OutcomeDenied,
			Details:    map[string]interface{}{"locked_until": failure.LockedUntil.Format(time.RFC3339)},
			RemoteAddr: ip,
		})
		s.log.WithField("employee_id", employee.EmployeeID).Warn("🔒 Account locked after repeated failures")
	}
	return domain.ErrInvalidCredentials
}

func (s *AuthService) recordBlocked(ctx context.Context, employee *models.Employee, ip string) {
	s.audit.Record(ctx, domain.AuditEvent{
		Type:       domain.AuditLoginBlocked,
		ActorID:    &employee.ID,
		ActorRef:   employee.EmployeeID,
		Outcome:    domain.OutcomeDenied,
		RemoteAddr: ip,
	})
}

// RefreshToken issues a new token pair from a refresh token.
// Every failure is reported as ErrInvalidRefreshToken.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken, ip string) (*TokenPair, error) {
	fail := func(reason string) (*TokenPair, error) {
		s.audit.Record(ctx, domain.AuditEvent{
			Type:       domain.AuditRefreshFailed,
			Outcome:    domain.OutcomeFailure,
			Details:    map[string]interface{}{"reason": reason, "token_sha256": password.HashToken(refreshToken)},
			RemoteAddr: ip,
		})
		return nil, domain.ErrInvalidRefreshToken
	}

	// 1. Validate token type, signature, issuer and expiry
	claims, err := s.tokens.Validate(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return fail(err.Error())
	}
	identity, err := claims.Identity()
	if err != nil {
		return fail("bad subject")
	}

	// 2. Deactivation takes effect on the next refresh
	employee, err := s.employeeRepo.GetByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail("unknown employee")
		}
		return nil, storeError(s.log, "get employee", err)
	}
	if !employee.IsActive {
		return fail("inactive employee")
	}

	// 3. Rotate
	tokens, err := s.generateTokens(employee)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEvent{
		Type:       domain.AuditRefresh,
		ActorID:    &employee.ID,
		ActorRef:   employee.EmployeeID,
		Outcome:    domain.OutcomeSuccess,
		RemoteAddr: ip,
	})
	return tokens, nil
}

// Logout records the logout. Tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, actor domain.EmployeeContext, ip string) {
	event := domain.ActorEvent(domain.AuditLogout, actor, domain.OutcomeSuccess, nil)
	event.RemoteAddr = ip
	s.audit.Record(ctx, event)
}

// Authenticate resolves an access token to the current employee context.
// Token failures are returned as their distinct token errors; a missing or
// inactive employee yields ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (domain.EmployeeContext, error) {
	claims, err := s.tokens.Validate(accessToken, jwt.TokenTypeAccess)
	if err != nil {
		return domain.EmployeeContext{}, err
	}
	identity, err := claims.Identity()
	if err != nil {
		return domain.EmployeeContext{}, err
	}

	employee, err := s.employeeRepo.GetByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.EmployeeContext{}, domain.ErrUnauthorized
		}
		return domain.EmployeeContext{}, storeError(s.log, "get employee", err)
	}
	if !employee.IsActive || employee.EmployeeID != identity.EmployeeID {
		return domain.EmployeeContext{}, domain.ErrUnauthorized
	}
	return employee.Context(), nil
}

// CurrentEmployee returns the public profile of an employee
func (s *AuthService) CurrentEmployee(ctx context.Context, id uint) (*models.EmployeeResponse, error) {
	employee, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError(s.log, "get employee", err)
	}
	return employee.ToResponse(), nil
}

// UnlockEmployee clears the lockout state of another employee
func (s *AuthService) UnlockEmployee(ctx context.Context, actor domain.EmployeeContext, targetID uint, ip string) error {
	if !actor.Role.CanManageEmployees() {
		event := domain.ActorEvent(domain.AuditAccessDenied, actor, domain.OutcomeDenied, map[string]interface{}{
			"action": "unlock_employee", "target_id": targetID,
		})
		event.RemoteAddr = ip
		s.audit.Record(ctx, event)
		return domain.ErrForbidden
	}

	if err := s.employeeRepo.Unlock(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return storeError(s.log, "unlock employee", err)
	}

	event := domain.ActorEvent(domain.AuditEmployeeUnlock, actor, domain.OutcomeSuccess, map[string]interface{}{
		"target_id": targetID,
	})
	event.RemoteAddr = ip
	s.audit.Record(ctx, event)
	return nil
}

// generateTokens creates access and refresh tokens
func (s *AuthService) generateTokens(employee *models.Employee) (*TokenPair, error) {
	identity := jwt.Identity{
		ID:         employee.ID,
		EmployeeID: employee.EmployeeID,
		Username:   employee.Username,
		Role:       string(employee.Role),
	}

	accessToken, accessExp, err := s.tokens.IssueAccess(identity)
	if err != nil {
		s.log.WithError(err).Error("sign access token")
		return nil, domain.ErrInternalFailure
	}
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(identity)
	if err != nil {
		s.log.WithError(err).Error("sign refresh token")
		return nil, domain.ErrInternalFailure
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

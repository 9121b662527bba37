package middleware

import (
	"context"
	"errors"
	"strings"

	"remitgate/internal/core/domain"
	"remitgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const employeeKey = "employee"

// Authenticator resolves an access token to the acting employee
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (domain.EmployeeContext, error)
}

// Auditor receives denial events
type Auditor interface {
	Record(ctx context.Context, event domain.AuditEvent)
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(auth Authenticator, audit Auditor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Extract token
		accessToken := extractToken(c)
		if accessToken == "" {
			deny(c, audit, "missing_token")
			return response.Unauthorized(c, "Access token required")
		}

		// 2. Validate token and resolve employee
		employee, err := auth.Authenticate(c.UserContext(), accessToken)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTimeout):
				return response.GatewayTimeout(c, "Request timed out")
			case errors.Is(err, domain.ErrInternalFailure):
				return response.InternalServerError(c, "Internal server error")
			case errors.Is(err, domain.ErrTokenExpired):
				deny(c, audit, "token_expired")
				return response.Unauthorized(c, "Access token expired")
			}
			deny(c, audit, err.Error())
			return response.Unauthorized(c, "Invalid access token")
		}

		// 3. Attach employee to the request
		c.Locals(employeeKey, employee)
		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(audit Auditor, allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		employee, ok := CurrentEmployee(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		// Check if employee's role is in allowed roles
		for _, allowedRole := range allowedRoles {
			if employee.Role == allowedRole {
				return c.Next()
			}
		}

		event := domain.ActorEvent(domain.AuditAccessDenied, employee, domain.OutcomeDenied, map[string]interface{}{
			"reason": "role",
			"path":   c.Path(),
		})
		event.RemoteAddr = c.IP()
		audit.Record(c.UserContext(), event)
		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// SupervisorOrAdmin allows SUPERVISOR or ADMIN roles
func SupervisorOrAdmin(audit Auditor) fiber.Handler {
	return RoleMiddleware(audit, domain.RoleSupervisor, domain.RoleAdmin)
}

// CurrentEmployee returns the employee attached by AuthMiddleware
func CurrentEmployee(c *fiber.Ctx) (domain.EmployeeContext, bool) {
	employee, ok := c.Locals(employeeKey).(domain.EmployeeContext)
	return employee, ok
}

// extractToken reads the bearer header, then the access_token cookie
func extractToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if token, found := strings.CutPrefix(authHeader, "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return c.Cookies("access_token")
}

func deny(c *fiber.Ctx, audit Auditor, reason string) {
	audit.Record(c.UserContext(), domain.AuditEvent{
		Type:       domain.AuditAccessDenied,
		Outcome:    domain.OutcomeDenied,
		Details:    map[string]interface{}{"reason": reason, "path": c.Path()},
		RemoteAddr: c.IP(),
	})
}

package handlers

import (
	"remitgate/internal/adapters/http/middleware"
	"remitgate/internal/core/services"
	"remitgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// EmployeeHandler handles employee administration endpoints
type EmployeeHandler struct {
	authService *services.AuthService
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(authService *services.AuthService) *EmployeeHandler {
	return &EmployeeHandler{authService: authService}
}

// Unlock clears the lockout of an employee
// @Summary Unlock employee
// @Description Reset failed login attempts and lock (ADMIN or SUPERVISOR)
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param id path int true "Employee ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /employees/{id}/unlock [post]
func (h *EmployeeHandler) Unlock(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentEmployee(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.InvalidField(c, "id", "must be a positive integer")
	}

	if err := h.authService.UnlockEmployee(c.UserContext(), actor, uint(id), c.IP()); err != nil {
		return handleError(c, err)
	}

	return response.Success(c, "Employee unlocked", nil)
}

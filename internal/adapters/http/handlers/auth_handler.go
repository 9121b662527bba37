package handlers

import (
	"strings"
	"time"

	"remitgate/internal/adapters/http/middleware"
	"remitgate/internal/config"
	"remitgate/internal/core/services"
	"remitgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Username   string `json:"username"`
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

// RefreshRequest represents refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login handles employee login
// @Summary Login employee
// @Description Authenticate with username, employee id and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 423 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.LoginInput{
		Username:   strings.TrimSpace(req.Username),
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		Password:   req.Password,
		IPAddress:  c.IP(),
	}

	result, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return handleError(c, err)
	}

	// Set cookies
	h.setAuthCookies(c, &result.TokenPair)

	return response.Success(c, "Login successful", result)
}

// RefreshToken handles token refresh
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new access and refresh token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token (falls back to the refresh_token cookie)"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	refreshToken := strings.TrimSpace(req.RefreshToken)
	if refreshToken == "" {
		refreshToken = c.Cookies("refresh_token")
	}
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.RefreshToken(c.UserContext(), refreshToken, c.IP())
	if err != nil {
		h.clearAuthCookies(c)
		return handleError(c, err)
	}

	// Set new cookies
	h.setAuthCookies(c, result)

	return response.Success(c, "Token refreshed successfully", result)
}

// Logout handles employee logout
// @Summary Logout employee
// @Description Clears auth cookies. Issued tokens remain valid until they expire.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	employee, ok := middleware.CurrentEmployee(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	h.authService.Logout(c.UserContext(), employee, c.IP())
	h.clearAuthCookies(c)

	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current employee profile
// @Summary Get current employee
// @Description Get the authenticated employee's profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	employee, ok := middleware.CurrentEmployee(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	profile, err := h.authService.CurrentEmployee(c.UserContext(), employee.ID)
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, "Employee retrieved successfully", fiber.Map{
		"employee": profile,
	})
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, tokens *services.TokenPair) {
	// Access token cookie (shorter expiry)
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	// Refresh token cookie, only sent to the refresh endpoint
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    tokens.RefreshToken,
		Path:     "/api/v1/auth/refresh",
		Expires:  tokens.RefreshExpiresAt,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for name, path := range map[string]string{
		"access_token":  "/",
		"refresh_token": "/api/v1/auth/refresh",
	} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			MaxAge:   -1,
			Expires:  time.Now().Add(-1 * time.Hour),
			Secure:   h.cfg.Cookie.Secure,
			HTTPOnly: true,
			SameSite: h.cfg.Cookie.SameSite,
			Domain:   h.cfg.Cookie.Domain,
		})
	}
}

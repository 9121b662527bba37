package handlers

import (
	"errors"

	"remitgate/internal/core/domain"
	"remitgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// handleError writes the response for a service error.
// Identity failures stay vague; internal failures never expose detail.
func handleError(c *fiber.Ctx, err error) error {
	var fieldErr *domain.FieldError
	var batchErr *domain.BatchError

	switch {
	case errors.As(err, &fieldErr):
		return response.InvalidField(c, fieldErr.Field, fieldErr.Message)
	case errors.As(err, &batchErr):
		return response.UnprocessableEntity(c, "Batch contains transactions that are not VERIFIED", fiber.Map{
			"invalid_ids": batchErr.InvalidIDs,
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, "Invalid request")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid credentials")
	case errors.Is(err, domain.ErrAccountLocked):
		return response.Locked(c, "Account is temporarily locked, try again later")
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		return response.Unauthorized(c, "Invalid refresh token")
	case errors.Is(err, domain.ErrTokenExpired):
		return response.Unauthorized(c, "Token expired")
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenTypeMismatch),
		errors.Is(err, domain.ErrSignatureInvalid),
		errors.Is(err, domain.ErrIssuerAudienceMismatch):
		return response.Unauthorized(c, "Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "You don't have permission to perform this action")
	case errors.Is(err, domain.ErrLimitExceeded):
		return response.Forbidden(c, "Amount exceeds your verification limit")
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, "Resource not found")
	case errors.Is(err, domain.ErrInvalidState):
		return response.Conflict(c, "Transaction is not in the required state")
	case errors.Is(err, domain.ErrTimeout):
		return response.GatewayTimeout(c, "Request timed out")
	default:
		return response.InternalServerError(c, "Internal server error")
	}
}

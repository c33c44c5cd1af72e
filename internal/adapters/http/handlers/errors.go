package handlers

import (
	"errors"

	"coop-memberhub/internal/core/domain"
	"coop-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to a status code by its wrapped kind
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrValidation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrIntegrity):
		return response.Error(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		return response.InternalServerError(c, "Internal server error")
	}
}

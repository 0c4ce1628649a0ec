package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PowerBio/internal/app/repository"
	"github.com/sifan077/PowerBio/internal/app/service"
	"go.uber.org/zap"
)

// statusFor maps service and repository errors to a status and client message.
// Unknown errors map to 500 and are reported as not ok.
func statusFor(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, service.ErrMissingProfileID),
		errors.Is(err, service.ErrMissingBlockID),
		errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrBlockProfileMismatch),
		errors.Is(err, service.ErrMissingUTM),
		errors.Is(err, service.ErrInvalidDestination):
		return fiber.StatusBadRequest, err.Error(), true
	case errors.Is(err, repository.ErrProfileNotFound):
		return fiber.StatusNotFound, "Profile not found", true
	case errors.Is(err, repository.ErrBlockNotFound):
		return fiber.StatusNotFound, "Block not found", true
	case errors.Is(err, repository.ErrShortLinkNotFound):
		return fiber.StatusNotFound, "Link not found", true
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, "Forbidden", true
	case errors.Is(err, service.ErrCodeGenerationExhausted):
		return fiber.StatusServiceUnavailable, "Could not allocate a short code, please retry", true
	default:
		return fiber.StatusInternalServerError, "Internal server error", false
	}
}

func respondError(c *fiber.Ctx, logger *zap.Logger, msg string, err error) error {
	status, message, ok := statusFor(err)
	if !ok {
		logger.Error(msg, zap.Error(err), zap.String("path", c.Path()))
	}
	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

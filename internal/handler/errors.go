package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/weprint/agent/internal/service"
	"github.com/weprint/agent/pkg/response"
)

// serviceError maps the service error taxonomy onto HTTP codes. Busy-by-
// design outcomes get 409 so callers can tell them from real faults.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSourceMissing),
		errors.Is(err, service.ErrConfigMissing):
		return response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrAlreadyPrinting),
		errors.Is(err, service.ErrNothingToCancel):
		return response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrBadPayload),
		errors.Is(err, service.ErrUnsupportedCommand):
		return response.ValidationError(c, err.Error(), nil)
	default:
		return response.ServiceError(c, err.Error())
	}
}

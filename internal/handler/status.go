package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/weprint/agent/internal/service"
	"github.com/weprint/agent/pkg/response"
)

type StatusHandler struct {
	service *service.PrintService
}

func NewStatusHandler(svc *service.PrintService) *StatusHandler {
	return &StatusHandler{service: svc}
}

// Get handles GET /status
// @Summary      Printer status
// @Description  Read a fresh normalized status snapshot from the printer
// @Tags         Printer
// @Produce      json
// @Success      200 {object} model.StatusSnapshot
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /status [get]
func (h *StatusHandler) Get(c *fiber.Ctx) error {
	snap, err := h.service.Status(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, snap)
}

package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/weprint/agent/internal/model"
	"github.com/weprint/agent/internal/service"
	"github.com/weprint/agent/pkg/response"
)

type CommandHandler struct {
	service   *service.CommandService
	validator *validator.Validate
}

func NewCommandHandler(svc *service.CommandService, v *validator.Validate) *CommandHandler {
	return &CommandHandler{
		service:   svc,
		validator: v,
	}
}

// Execute handles POST /remote_command
// @Summary      Execute a remote command
// @Description  Run a cloud-issued command locally: stop the current print, or download a referenced file and print it
// @Tags         Printer
// @Accept       json
// @Produce      json
// @Param        request body model.RelayCommand true "Command payload"
// @Success      200 {object} model.PrintResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /remote_command [post]
func (h *CommandHandler) Execute(c *fiber.Ctx) error {
	var cmd model.RelayCommand
	if err := c.BodyParser(&cmd); err != nil {
		return response.ValidationError(c, "Invalid command payload", nil)
	}
	if err := h.validator.Struct(&cmd); err != nil {
		return response.ValidationError(c, "Missing command", nil)
	}

	filename, err := h.service.Dispatch(c.Context(), &cmd)
	if err != nil {
		return serviceError(c, err)
	}

	if cmd.Command == model.CommandStopPrint {
		return response.OK(c, model.StopResponse{Success: true, Message: "Print stopped"})
	}
	return response.OK(c, model.PrintResponse{Success: true, Filename: filename})
}

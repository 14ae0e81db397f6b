package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/weprint/agent/internal/model"
	"github.com/weprint/agent/internal/service"
	"github.com/weprint/agent/pkg/response"
)

type PrintHandler struct {
	service   *service.PrintService
	validator *validator.Validate
}

func NewPrintHandler(svc *service.PrintService, v *validator.Validate) *PrintHandler {
	return &PrintHandler{
		service:   svc,
		validator: v,
	}
}

// Print handles POST /print
// @Summary      Start a print
// @Description  Upload a local gcode or model file (models are sliced first) and start printing it
// @Tags         Printer
// @Accept       json
// @Produce      json
// @Param        request body model.PrintRequest true "File to print"
// @Success      200 {object} model.PrintResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /print [post]
func (h *PrintHandler) Print(c *fiber.Ctx) error {
	var req model.PrintRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Missing file_path", nil)
	}

	job := model.JobRequest{
		SourcePath:      req.FilePath,
		SourceKind:      model.SourceKindForPath(req.FilePath),
		SliceConfigPath: req.ConfigPath,
	}

	filename, err := h.service.SubmitJob(c.Context(), job)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, model.PrintResponse{Success: true, Filename: filename})
}

// Stop handles POST /stop
// @Summary      Stop the current print
// @Tags         Printer
// @Produce      json
// @Success      200 {object} model.StopResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /stop [post]
func (h *PrintHandler) Stop(c *fiber.Ctx) error {
	if err := h.service.StopPrint(c.Context()); err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, model.StopResponse{Success: true})
}

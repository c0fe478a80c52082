package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/songmasher/api/internal/model"
	"github.com/songmasher/api/internal/service"
	"github.com/songmasher/api/pkg/response"
)

// RenderHandler serves the render job surface: start, progress, cancel,
// download.
type RenderHandler struct {
	service   *service.RenderService
	validator *validator.Validate
}

func NewRenderHandler(svc *service.RenderService, v *validator.Validate) *RenderHandler {
	return &RenderHandler{service: svc, validator: v}
}

// Start handles POST /api/render.
func (h *RenderHandler) Start(c *fiber.Ctx) error {
	var req model.RenderStartRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "validation failed", err.Error())
	}

	resp, err := h.service.StartRender(c.Context(), &req)
	if err != nil {
		return response.ServiceError(c, "starting render failed")
	}
	return response.Accepted(c, resp)
}

// Progress handles GET /api/render/:jobId.
func (h *RenderHandler) Progress(c *fiber.Ctx) error {
	job, err := h.service.GetProgress(c.Context(), c.Params("jobId"))
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "job not found")
		}
		return response.ServiceError(c, "loading job failed")
	}
	return response.OK(c, job)
}

// Cancel handles POST /api/render/:jobId/cancel.
func (h *RenderHandler) Cancel(c *fiber.Ctx) error {
	resp, err := h.service.Cancel(c.Context(), c.Params("jobId"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			return response.NotFound(c, "job not found")
		case errors.Is(err, service.ErrJobTerminal):
			return response.Conflict(c, response.CodeJobFailed, "job already finished")
		}
		return response.ServiceError(c, "canceling job failed")
	}
	return response.OK(c, resp)
}

// Download handles GET /api/render/:jobId/download.
func (h *RenderHandler) Download(c *fiber.Ctx) error {
	resp, err := h.service.GetDownload(c.Context(), c.Params("jobId"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			return response.NotFound(c, "job not found")
		case errors.Is(err, service.ErrJobNotReady):
			return response.Conflict(c, response.CodeJobNotReady, "job has not completed")
		}
		return response.ServiceError(c, "resolving download failed")
	}
	return response.OK(c, resp)
}

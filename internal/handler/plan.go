package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/songmasher/api/internal/model"
	"github.com/songmasher/api/internal/planning"
	"github.com/songmasher/api/internal/service"
	"github.com/songmasher/api/pkg/response"
)

// PlanHandler serves mashup plan derivation.
type PlanHandler struct {
	service   *service.PlanService
	validator *validator.Validate
}

func NewPlanHandler(svc *service.PlanService, v *validator.Validate) *PlanHandler {
	return &PlanHandler{service: svc, validator: v}
}

// Plan handles POST /api/plan.
func (h *PlanHandler) Plan(c *fiber.Ctx) error {
	var req model.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "validation failed", err.Error())
	}
	if err := req.TrackA.Validate(); err != nil {
		return response.ValidationError(c, "trackA analysis invalid", err.Error())
	}
	if err := req.TrackB.Validate(); err != nil {
		return response.ValidationError(c, "trackB analysis invalid", err.Error())
	}

	plan, err := h.service.Plan(c.Context(), &req)
	if err != nil {
		var perr *planning.Error
		if errors.As(err, &perr) {
			return response.UnprocessableEntity(c, response.CodePlanningError, perr.Error())
		}
		return response.ServiceError(c, "planning failed")
	}
	return response.OK(c, plan)
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/songmasher/api/internal/model"
	"github.com/songmasher/api/internal/planning"
)

// PlanService derives mashup plans from analyzed track pairs.
type PlanService struct {
	planner *planning.Planner
	log     *zap.Logger
}

func NewPlanService(planner *planning.Planner, log *zap.Logger) *PlanService {
	return &PlanService{planner: planner, log: log}
}

func (s *PlanService) Plan(_ context.Context, req *model.PlanRequest) (*model.MashupPlan, error) {
	return s.planner.Plan(&req.TrackA, &req.TrackB, req.Recipe)
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/songmasher/api/internal/model"
	"github.com/songmasher/api/internal/render"
)

// RenderWorker consumes render tasks and drives the orchestrator. Task
// errors are not retried: a failed job is terminal and its errorDetail
// is the failure signal.
type RenderWorker struct {
	orchestrator *render.Orchestrator
	log          *zap.Logger
}

func NewRenderWorker(orchestrator *render.Orchestrator, log *zap.Logger) *RenderWorker {
	return &RenderWorker{orchestrator: orchestrator, log: log}
}

// ProcessTask handles one queued render.
func (w *RenderWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string                 `json:"jobId"`
		Payload model.RenderJobPayload `json:"payload"`
	}
	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("unmarshaling render task: %w", err)
	}

	if w.log != nil {
		w.log.Info("render job started", zap.String("jobId", taskPayload.JobID))
	}
	if err := w.orchestrator.Run(ctx, taskPayload.JobID, &taskPayload.Payload); err != nil {
		if w.log != nil {
			w.log.Error("render job failed", zap.String("jobId", taskPayload.JobID), zap.Error(err))
		}
		// The job record already carries the failure detail.
		return nil
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/songmasher/api/internal/model"
	"github.com/songmasher/api/internal/storage"
)

const (
	TaskTypeRender = "render:process"

	signedURLExpiry = time.Hour
)

// ErrJobNotReady is returned for download requests on unfinished jobs.
var ErrJobNotReady = errors.New("job not completed")

// ErrJobTerminal is returned for cancel requests on finished jobs.
var ErrJobTerminal = errors.New("job already finished")

// ProgressNotifier pushes job updates to subscribers. The websocket hub
// implements it; a no-op suffices in tests.
type ProgressNotifier interface {
	NotifyProgress(jobID string, stage model.JobStage, progress float64)
	NotifyComplete(jobID string, refs model.ResultRefs)
	NotifyError(jobID string, detail string)
}

// RenderService owns the render job lifecycle: enqueueing, job record
// updates on behalf of the orchestrator, cancellation, and downloads.
type RenderService struct {
	jobs        *JobStore
	asynqClient *asynq.Client
	store       storage.Store
	notifier    ProgressNotifier
	mixDefaults model.MixParameters
	log         *zap.Logger
}

func NewRenderService(jobs *JobStore, asynqClient *asynq.Client, store storage.Store, notifier ProgressNotifier, mixDefaults model.MixParameters, log *zap.Logger) *RenderService {
	return &RenderService{
		jobs:        jobs,
		asynqClient: asynqClient,
		store:       store,
		notifier:    notifier,
		mixDefaults: mixDefaults,
		log:         log,
	}
}

// resolveMixParams picks the request's explicit parameters when present,
// else the deployment defaults.
func resolveMixParams(override *model.MixParameters, defaults model.MixParameters) model.MixParameters {
	if override != nil {
		return *override
	}
	return defaults
}

type renderTaskPayload struct {
	JobID   string                 `json:"jobId"`
	Payload model.RenderJobPayload `json:"payload"`
}

// StartRender creates the job record and queues the work.
func (s *RenderService) StartRender(ctx context.Context, req *model.RenderStartRequest) (*model.RenderStartResponse, error) {
	jobID := uuid.New().String()
	now := time.Now().UTC()

	params := resolveMixParams(req.MixParameters, s.mixDefaults)
	payload := model.RenderJobPayload{
		TrackARef:     req.TrackARef,
		TrackBRef:     req.TrackBRef,
		AnalysisA:     req.AnalysisA,
		AnalysisB:     req.AnalysisB,
		Plan:          req.Plan,
		MixParameters: params,
		StemsA:        req.StemsA,
		StemsB:        req.StemsB,
	}

	job := &model.RenderJob{
		ID:        jobID,
		Stage:     model.StageQueued,
		Progress:  0,
		CreatedAt: now,
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("saving job: %w", err)
	}

	taskBytes, err := json.Marshal(renderTaskPayload{JobID: jobID, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshaling task: %w", err)
	}
	_, err = s.asynqClient.Enqueue(
		asynq.NewTask(TaskTypeRender, taskBytes),
		asynq.Queue("render"),
		asynq.MaxRetry(0),
		asynq.Retention(jobTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueueing render: %w", err)
	}

	if s.log != nil {
		s.log.Info("render queued", zap.String("jobId", jobID), zap.String("recipe", string(req.Plan.Recipe)))
	}
	return &model.RenderStartResponse{JobID: jobID, Stage: model.StageQueued, CreatedAt: now}, nil
}

// GetProgress returns the job record with the cancel flag folded in.
func (s *RenderService) GetProgress(ctx context.Context, jobID string) (*model.RenderJob, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if canceled, err := s.jobs.IsCanceled(ctx, jobID); err == nil && canceled {
		job.Canceled = true
	}
	return job, nil
}

// Cancel flags the job. The orchestrator observes the flag at its next
// stage boundary; already-terminal jobs cannot be cancelled. The flag is
// written to its own key, never through the job record, so it cannot be
// lost to a concurrent stage update.
func (s *RenderService) Cancel(ctx context.Context, jobID string) (*model.RenderCancelResponse, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Stage.Terminal() {
		return nil, ErrJobTerminal
	}
	if err := s.jobs.SetCanceled(ctx, jobID); err != nil {
		return nil, fmt.Errorf("flagging cancellation: %w", err)
	}
	return &model.RenderCancelResponse{JobID: jobID, Stage: job.Stage}, nil
}

// GetDownload returns the artifact refs for a completed job, with signed
// URLs when the backend supports them.
func (s *RenderService) GetDownload(ctx context.Context, jobID string) (*model.DownloadResponse, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Stage != model.StageCompleted || job.ResultRefs == nil {
		return nil, ErrJobNotReady
	}

	resp := &model.DownloadResponse{
		MashupRef:  job.ResultRefs.MashupAudioRef,
		ProjectRef: job.ResultRefs.ProjectFileRef,
	}
	if url, err := s.store.SignedURL(ctx, resp.MashupRef, signedURLExpiry); err == nil {
		resp.MashupURL = url
	}
	if url, err := s.store.SignedURL(ctx, resp.ProjectRef, signedURLExpiry); err == nil {
		resp.ProjectURL = url
	}
	return resp, nil
}

// The methods below implement render.JobSink for the orchestrator.

// UpdateStage advances the job. Stage and progress never move backward;
// a stale update is dropped rather than applied.
func (s *RenderService) UpdateStage(ctx context.Context, jobID string, stage model.JobStage, progress float64) error {
	job, err := s.jobs.Mutate(ctx, jobID, func(j *model.RenderJob) error {
		if j.Stage != stage && !j.Stage.CanTransition(stage) {
			return fmt.Errorf("illegal transition %s -> %s", j.Stage, stage)
		}
		if progress < j.Progress {
			progress = j.Progress
		}
		if j.StartedAt == nil {
			now := time.Now().UTC()
			j.StartedAt = &now
		}
		j.Stage = stage
		j.Progress = progress
		return nil
	})
	if err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyProgress(jobID, job.Stage, job.Progress)
	}
	return nil
}

func (s *RenderService) Canceled(ctx context.Context, jobID string) (bool, error) {
	return s.jobs.IsCanceled(ctx, jobID)
}

// Complete publishes both result refs and the terminal stage in a single
// write.
func (s *RenderService) Complete(ctx context.Context, jobID string, refs model.ResultRefs) error {
	_, err := s.jobs.Mutate(ctx, jobID, func(j *model.RenderJob) error {
		now := time.Now().UTC()
		j.Stage = model.StageCompleted
		j.Progress = 1
		j.ResultRefs = &refs
		j.CompletedAt = &now
		return nil
	})
	if err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyComplete(jobID, refs)
	}
	return nil
}

func (s *RenderService) Fail(ctx context.Context, jobID string, detail string) error {
	_, err := s.jobs.Mutate(ctx, jobID, func(j *model.RenderJob) error {
		now := time.Now().UTC()
		j.Stage = model.StageFailed
		j.ErrorDetail = &detail
		j.CompletedAt = &now
		return nil
	})
	if err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyError(jobID, detail)
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/songmasher/api/internal/model"
)

const jobTTL = 24 * time.Hour

// ErrJobNotFound is returned by job lookups for unknown IDs.
var ErrJobNotFound = errors.New("job not found")

// JobStore persists RenderJob records in redis. The orchestrator is the
// only writer while a job runs; reads can happen from any handler.
type JobStore struct {
	redis *redis.Client
}

func NewJobStore(redisClient *redis.Client) *JobStore {
	return &JobStore{redis: redisClient}
}

func jobKey(id string) string      { return "job:" + id }
func canceledKey(id string) string { return "job:" + id + ":canceled" }

func (s *JobStore) Save(ctx context.Context, job *model.RenderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}
	return s.redis.Set(ctx, jobKey(job.ID), data, jobTTL).Err()
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	data, err := s.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("loading job: %w", err)
	}
	var job model.RenderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshaling job: %w", err)
	}
	return &job, nil
}

// SetCanceled raises the job's cancel flag. The flag lives under its own
// key so the write can never be clobbered by a concurrent job record
// update.
func (s *JobStore) SetCanceled(ctx context.Context, id string) error {
	return s.redis.Set(ctx, canceledKey(id), "1", jobTTL).Err()
}

// IsCanceled reports whether the cancel flag is set.
func (s *JobStore) IsCanceled(ctx context.Context, id string) (bool, error) {
	err := s.redis.Get(ctx, canceledKey(id)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading cancel flag: %w", err)
	}
	return true, nil
}

// Mutate applies fn to the stored job and writes it back.
func (s *JobStore) Mutate(ctx context.Context, id string, fn func(*model.RenderJob) error) (*model.RenderJob, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

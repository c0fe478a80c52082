package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/songmasher/api/internal/analysis"
	"github.com/songmasher/api/internal/model"
	"github.com/songmasher/api/internal/storage"
)

// AnalysisService stores uploads and runs feature extraction on them.
type AnalysisService struct {
	analyzer *analysis.Analyzer
	store    storage.Store
	log      *zap.Logger
}

func NewAnalysisService(analyzer *analysis.Analyzer, store storage.Store, log *zap.Logger) *AnalysisService {
	return &AnalysisService{analyzer: analyzer, store: store, log: log}
}

// AnalyzeUpload persists the uploaded WAV and returns its analysis. The
// file is analyzed before it is stored so rejected audio never lands in
// storage.
func (s *AnalysisService) AnalyzeUpload(ctx context.Context, data []byte) (*model.AnalyzeResponse, error) {
	result, err := s.analyzer.AnalyzeBytes(ctx, data)
	if err != nil {
		return nil, err
	}

	ref, err := s.store.Put(ctx, fmt.Sprintf("tracks/%s.wav", uuid.New().String()), data, "audio/wav")
	if err != nil {
		return nil, fmt.Errorf("storing track: %w", err)
	}
	if s.log != nil {
		s.log.Info("track analyzed",
			zap.String("ref", ref),
			zap.Float64("bpm", result.BPM),
			zap.String("key", result.Key.String()),
		)
	}
	return &model.AnalyzeResponse{TrackRef: ref, Analysis: *result}, nil
}

// AnalyzePair analyzes two stored tracks concurrently; the two runs are
// independent.
func (s *AnalysisService) AnalyzePair(ctx context.Context, refA, refB string) (*model.TrackAnalysis, *model.TrackAnalysis, error) {
	var (
		wg         sync.WaitGroup
		outA, outB *model.TrackAnalysis
		errA, errB error
	)
	run := func(ref string, out **model.TrackAnalysis, errOut *error) {
		defer wg.Done()
		data, err := s.store.Get(ctx, ref)
		if err != nil {
			*errOut = fmt.Errorf("loading %s: %w", ref, err)
			return
		}
		*out, *errOut = s.analyzer.AnalyzeBytes(ctx, data)
	}
	wg.Add(2)
	go run(refA, &outA, &errA)
	go run(refB, &outB, &errB)
	wg.Wait()

	if errA != nil {
		return nil, nil, errA
	}
	if errB != nil {
		return nil, nil, errB
	}
	return outA, outB, nil
}

package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/songmasher/api/internal/audio"
	"github.com/songmasher/api/internal/mix"
	"github.com/songmasher/api/internal/model"
	"github.com/songmasher/api/internal/separation"
	"github.com/songmasher/api/internal/storage"
	"github.com/songmasher/api/internal/transform"
)

// Stage progress markers. Progress only moves forward.
const (
	progressSeparating   = 0.10
	progressTransforming = 0.35
	progressMixing       = 0.65
	progressMastering    = 0.85
	progressDone         = 1.00
)

// JobSink is the orchestrator's single-writer view of the job record.
// Implementations persist updates and fan them out to subscribers.
type JobSink interface {
	UpdateStage(ctx context.Context, id string, stage model.JobStage, progress float64) error
	Canceled(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id string, refs model.ResultRefs) error
	Fail(ctx context.Context, id string, detail string) error
}

// Orchestrator drives one render job through its stages. Cancellation is
// honored at stage boundaries: a running stage finishes or is abandoned,
// but nothing partial is ever published.
type Orchestrator struct {
	store        storage.Store
	separator    separation.Separator
	engine       *transform.Engine
	mixer        *mix.Mixer
	masterer     *mix.Masterer
	sink         JobSink
	stageTimeout time.Duration
	log          *zap.Logger
}

func NewOrchestrator(
	store storage.Store,
	separator separation.Separator,
	engine *transform.Engine,
	mixer *mix.Mixer,
	masterer *mix.Masterer,
	sink JobSink,
	stageTimeout time.Duration,
	log *zap.Logger,
) *Orchestrator {
	if stageTimeout <= 0 {
		stageTimeout = 10 * time.Minute
	}
	return &Orchestrator{
		store:        store,
		separator:    separator,
		engine:       engine,
		mixer:        mixer,
		masterer:     masterer,
		sink:         sink,
		stageTimeout: stageTimeout,
		log:          log,
	}
}

// Run executes the job to completion or failure. The returned error is
// also recorded on the job via the sink.
func (o *Orchestrator) Run(ctx context.Context, jobID string, payload *model.RenderJobPayload) error {
	if err := o.run(ctx, jobID, payload); err != nil {
		if ferr := o.sink.Fail(ctx, jobID, ErrorDetail(err)); ferr != nil && o.log != nil {
			o.log.Error("recording job failure", zap.String("jobId", jobID), zap.Error(ferr))
		}
		return err
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, jobID string, payload *model.RenderJobPayload) error {
	// Separating.
	if err := o.enterStage(ctx, jobID, model.StageSeparating, progressSeparating); err != nil {
		return err
	}
	stemsA, stemsB, err := o.separateStage(ctx, payload)
	if err != nil {
		return err
	}

	// Transforming.
	if err := o.enterStage(ctx, jobID, model.StageTransforming, progressTransforming); err != nil {
		return err
	}
	bufsA, err := o.transformStage(ctx, stemsA, payload.Plan.KeyShiftSemitones.A, payload.Plan.StretchRatio.A)
	if err != nil {
		return err
	}
	bufsB, err := o.transformStage(ctx, stemsB, payload.Plan.KeyShiftSemitones.B, payload.Plan.StretchRatio.B)
	if err != nil {
		return err
	}

	// Mixing.
	if err := o.enterStage(ctx, jobID, model.StageMixing, progressMixing); err != nil {
		return err
	}
	bus, err := o.withTimeoutBuf(ctx, func(sctx context.Context) (*audio.Buffer, error) {
		return o.mixer.Mix(sctx, bufsA, bufsB, &payload.Plan, payload.MixParameters)
	})
	if err != nil {
		return err
	}

	// Mastering.
	if err := o.enterStage(ctx, jobID, model.StageMastering, progressMastering); err != nil {
		return err
	}
	hints, err := o.masterer.Master(ctx, bus)
	if err != nil {
		return stageError(err)
	}
	if len(hints) > 0 && o.log != nil {
		o.log.Info("mastering hints", zap.String("jobId", jobID), zap.Strings("hints", hints))
	}

	// Publish both artifacts, then flip the job to completed. The refs
	// land on the record in one write.
	wav, err := audio.EncodeWAV(bus)
	if err != nil {
		return &Error{Kind: KindInternal, Msg: "encoding final mix", Err: err}
	}
	audioRef, err := o.store.Put(ctx, fmt.Sprintf("renders/%s/mashup.wav", jobID), wav, "audio/wav")
	if err != nil {
		return &Error{Kind: KindInternal, Msg: "storing final mix", Err: err}
	}
	projectData, err := EncodeProjectFile(BuildProjectFile(payload, o.separator.ModelVersion()))
	if err != nil {
		return &Error{Kind: KindInternal, Msg: "encoding project file", Err: err}
	}
	projectRef, err := o.store.Put(ctx, fmt.Sprintf("renders/%s/project.json", jobID), projectData, "application/json")
	if err != nil {
		return &Error{Kind: KindInternal, Msg: "storing project file", Err: err}
	}

	if err := o.sink.Complete(ctx, jobID, model.ResultRefs{
		MashupAudioRef: audioRef,
		ProjectFileRef: projectRef,
	}); err != nil {
		return &Error{Kind: KindInternal, Msg: "completing job", Err: err}
	}
	if o.log != nil {
		o.log.Info("render completed", zap.String("jobId", jobID), zap.String("audioRef", audioRef))
	}
	return nil
}

// enterStage is the cooperative cancellation checkpoint between stages.
func (o *Orchestrator) enterStage(ctx context.Context, jobID string, stage model.JobStage, progress float64) error {
	canceled, err := o.sink.Canceled(ctx, jobID)
	if err != nil {
		return &Error{Kind: KindInternal, Msg: "checking cancellation", Err: err}
	}
	if canceled || ctx.Err() != nil {
		return &Error{Kind: KindCancelled, Msg: "job canceled before " + string(stage)}
	}
	if err := o.sink.UpdateStage(ctx, jobID, stage, progress); err != nil {
		return &Error{Kind: KindInternal, Msg: "updating stage", Err: err}
	}
	return nil
}

func (o *Orchestrator) separateStage(ctx context.Context, payload *model.RenderJobPayload) (mix.Stems, mix.Stems, error) {
	refsA, refsB := payload.StemsA, payload.StemsB
	var err error
	if refsA == nil {
		if refsA, err = o.separateWithTimeout(ctx, payload.TrackARef); err != nil {
			return nil, nil, err
		}
	}
	if refsB == nil {
		if refsB, err = o.separateWithTimeout(ctx, payload.TrackBRef); err != nil {
			return nil, nil, err
		}
	}
	stemsA, err := o.loadStems(ctx, refsA)
	if err != nil {
		return nil, nil, err
	}
	stemsB, err := o.loadStems(ctx, refsB)
	if err != nil {
		return nil, nil, err
	}
	return stemsA, stemsB, nil
}

func (o *Orchestrator) separateWithTimeout(ctx context.Context, trackRef string) (*model.StemRefs, error) {
	sctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	refs, err := o.separator.Separate(sctx, trackRef)
	if err != nil {
		return nil, stageError(err)
	}
	return refs, nil
}

func (o *Orchestrator) loadStems(ctx context.Context, refs *model.StemRefs) (mix.Stems, error) {
	stems := make(mix.Stems, len(model.AllStemRoles))
	for _, role := range model.AllStemRoles {
		data, err := o.store.Get(ctx, refs.Ref(role))
		if err != nil {
			return nil, &mix.Error{Kind: mix.KindMissingStem, Msg: "loading " + string(role) + " stem: " + err.Error()}
		}
		buf, err := audio.DecodeWAV(data)
		if err != nil {
			return nil, &mix.Error{Kind: mix.KindMissingStem, Msg: "decoding " + string(role) + " stem: " + err.Error()}
		}
		stems[role] = buf
	}
	return stems, nil
}

func (o *Orchestrator) transformStage(ctx context.Context, stems mix.Stems, semitones int, stretch float64) (mix.Stems, error) {
	sctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	out := make(mix.Stems, len(stems))
	for role, buf := range stems {
		transformed, err := o.engine.Apply(sctx, buf, semitones, stretch)
		if err != nil {
			return nil, stageError(err)
		}
		out[role] = transformed
	}
	return out, nil
}

func (o *Orchestrator) withTimeoutBuf(ctx context.Context, fn func(context.Context) (*audio.Buffer, error)) (*audio.Buffer, error) {
	sctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	buf, err := fn(sctx)
	if err != nil {
		return nil, stageError(err)
	}
	return buf, nil
}

// stageError maps a deadline blowout to StageTimeout and passes typed
// component errors through untouched.
func stageError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindStageTimeout, Msg: "stage exceeded its time budget", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCancelled, Msg: "job canceled mid-stage", Err: err}
	}
	return err
}

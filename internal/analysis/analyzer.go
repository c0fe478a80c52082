package analysis

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/songmasher/api/internal/audio"
	"github.com/songmasher/api/internal/model"
)

const silentFrameFraction = 0.90

// Config controls analyzer thresholds.
type Config struct {
	MinDurationSeconds    float64
	ChorusEnergyThreshold float64
}

// Analyzer extracts tempo, beats, key, structure and loudness from a
// decoded track.
type Analyzer struct {
	cfg Config
	log *zap.Logger
}

func NewAnalyzer(cfg Config, log *zap.Logger) *Analyzer {
	if cfg.MinDurationSeconds <= 0 {
		cfg.MinDurationSeconds = 10
	}
	if cfg.ChorusEnergyThreshold <= 0 {
		cfg.ChorusEnergyThreshold = 1.1
	}
	return &Analyzer{cfg: cfg, log: log}
}

// AnalyzeBytes decodes an in-memory WAV file and analyzes it.
func (a *Analyzer) AnalyzeBytes(ctx context.Context, data []byte) (*model.TrackAnalysis, error) {
	buf, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, &Error{Kind: KindDecodeFailure, Msg: "decoding input", Err: err}
	}
	return a.Analyze(ctx, buf)
}

// Analyze runs the full feature pipeline. It returns a complete
// TrackAnalysis or an *Error, never a partial result.
func (a *Analyzer) Analyze(ctx context.Context, buf *audio.Buffer) (*model.TrackAnalysis, error) {
	duration := buf.Duration()
	if duration < a.cfg.MinDurationSeconds {
		return nil, &Error{Kind: KindTooShort, Msg: "input shorter than minimum analyzable duration"}
	}

	mono := buf.Mono()
	energy := frameRMS(mono, onsetFrameSize, onsetHop)
	if silentFraction(energy) >= silentFrameFraction {
		return nil, &Error{Kind: KindSilent, Msg: "input is effectively silent"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env := onsetEnvelope(mono)
	bpm, tempoConf := estimateTempo(env, buf.SampleRate)
	if bpm <= 0 {
		return nil, &Error{Kind: KindSilent, Msg: "no rhythmic content detected"}
	}
	beats := trackBeats(env, buf.SampleRate, bpm)
	downbeats := pickDownbeats(beats, env, buf.SampleRate)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, keyConf := estimateKey(mono, buf.SampleRate)
	chroma := chromaFrames(mono, buf.SampleRate)
	sections := segmentStructure(beats, chroma, energy, buf.SampleRate, duration, a.cfg.ChorusEnergyThreshold)
	lufs := IntegratedLoudness(buf)

	analysis := &model.TrackAnalysis{
		DurationSeconds:        duration,
		SampleRate:             buf.SampleRate,
		BPM:                    bpm,
		BeatTimes:              beats,
		DownbeatTimes:          downbeats,
		Key:                    key,
		CamelotCode:            key.CamelotCode(),
		Sections:               sections,
		IntegratedLoudnessLUFS: lufs,
		Confidence:             math.Min(tempoConf, keyConf),
	}
	if err := analysis.Validate(); err != nil {
		return nil, &Error{Kind: KindInternal, Msg: "inconsistent analysis output", Err: err}
	}
	if a.log != nil {
		a.log.Debug("track analyzed",
			zap.Float64("bpm", bpm),
			zap.String("key", key.String()),
			zap.Float64("lufs", lufs),
			zap.Int("sections", len(sections)),
		)
	}
	return analysis, nil
}

// silentFraction returns the share of frames below -70 dBFS.
func silentFraction(energy []float64) float64 {
	if len(energy) == 0 {
		return 1
	}
	threshold := audio.DBToLinear(-70)
	var silent int
	for _, e := range energy {
		if e < threshold {
			silent++
		}
	}
	return float64(silent) / float64(len(energy))
}

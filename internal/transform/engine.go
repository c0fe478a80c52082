package transform

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/songmasher/api/internal/audio"
)

// Combined resampling beyond this factor is outside the engine's
// stable operating range.
const maxCombinedRatio = 4.0

// Engine applies a plan's per-track pitch and tempo corrections to stem
// waveforms. The two corrections run as independent stages so key and
// tempo changes do not interact.
type Engine struct {
	log *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	return &Engine{log: log}
}

// Apply time-stretches the buffer by stretchRatio (targetBpm/sourceBpm,
// i.e. the playback speed factor) and pitch-shifts it by semitones.
// Channels are processed independently.
func (e *Engine) Apply(ctx context.Context, buf *audio.Buffer, semitones int, stretchRatio float64) (*audio.Buffer, error) {
	if stretchRatio <= 0 {
		return nil, &Error{Kind: KindInvalidRatio, Msg: "stretch ratio must be positive"}
	}
	combined := stretchRatio * math.Pow(2, math.Abs(float64(semitones))/12.0)
	if combined > maxCombinedRatio || 1/combined > maxCombinedRatio {
		return nil, &Error{Kind: KindInvalidRatio, Msg: "combined pitch and stretch ratio outside stable range"}
	}
	if buf.Frames() == 0 {
		return nil, &Error{Kind: KindEngineFailure, Msg: "empty input buffer"}
	}

	out := &audio.Buffer{SampleRate: buf.SampleRate, Data: make([][]float64, buf.Channels())}
	for ch, data := range buf.Data {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stretched := TimeStretch(data, stretchRatio)
		out.Data[ch] = PitchShift(stretched, float64(semitones))
	}

	// Framing can leave channels a few samples apart; trim to the
	// shortest so the buffer stays rectangular.
	minLen := len(out.Data[0])
	for _, ch := range out.Data[1:] {
		if len(ch) < minLen {
			minLen = len(ch)
		}
	}
	for ch := range out.Data {
		out.Data[ch] = out.Data[ch][:minLen]
	}

	if e.log != nil {
		e.log.Debug("stem transformed",
			zap.Int("semitones", semitones),
			zap.Float64("stretch", stretchRatio),
			zap.Int("inFrames", buf.Frames()),
			zap.Int("outFrames", out.Frames()),
		)
	}
	return out, nil
}

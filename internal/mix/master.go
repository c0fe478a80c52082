package mix

import (
	"context"

	"go.uber.org/zap"

	"github.com/songmasher/api/internal/analysis"
	"github.com/songmasher/api/internal/audio"
)

// HintReducedLoudness is recorded when loudness had to yield to headroom.
const HintReducedLoudness = "loudness target reduced to preserve headroom"

// MasterConfig sets the loudness target and the required headroom below
// full scale.
type MasterConfig struct {
	TargetLUFS float64
	HeadroomDB float64
}

// Masterer finalizes the mix bus: peak limiting followed by loudness
// normalization that never trades away the headroom floor.
type Masterer struct {
	cfg MasterConfig
	log *zap.Logger
}

func NewMasterer(cfg MasterConfig, log *zap.Logger) *Masterer {
	if cfg.TargetLUFS == 0 {
		cfg.TargetLUFS = -14
	}
	if cfg.HeadroomDB <= 0 {
		cfg.HeadroomDB = 1
	}
	return &Masterer{cfg: cfg, log: log}
}

// Master mutates buf in place and returns any quality hints. The output
// peak never exceeds -HeadroomDB dBFS; when the loudness target cannot
// be reached inside that bound the gain is reduced and a hint recorded,
// the stage does not fail for this alone.
func (m *Masterer) Master(ctx context.Context, buf *audio.Buffer) ([]string, error) {
	if buf.Frames() == 0 {
		return nil, &Error{Kind: KindMissingStem, Msg: "empty mix bus"}
	}
	ceiling := audio.DBToLinear(-m.cfg.HeadroomDB)

	// Pre-limit so the loudness measurement sees the final waveform shape.
	if peak := buf.Peak(); peak > ceiling {
		buf.Gain(ceiling / peak)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	measured := analysis.IntegratedLoudness(buf)
	gainDB := m.cfg.TargetLUFS - measured
	gain := audio.DBToLinear(gainDB)

	var hints []string
	if peak := buf.Peak(); peak*gain > ceiling {
		gain = ceiling / peak
		hints = append(hints, HintReducedLoudness)
	}
	buf.Gain(gain)

	// Numeric safety net; the gain math above should already respect the
	// ceiling.
	if peak := buf.Peak(); peak > ceiling {
		buf.Gain(ceiling / peak)
	}

	final := analysis.IntegratedLoudness(buf)
	if m.log != nil {
		m.log.Debug("mastered",
			zap.Float64("measuredLufs", measured),
			zap.Float64("finalLufs", final),
			zap.Float64("peakDb", audio.LinearToDB(buf.Peak())),
			zap.Int("hints", len(hints)),
		)
	}
	if peak := buf.Peak(); peak > ceiling+1e-9 {
		return hints, &Error{Kind: KindHeadroomViolation, Msg: "peak above headroom ceiling after limiting"}
	}
	return hints, nil
}

package transform

import (
	"math"

	"github.com/songmasher/api/internal/audio"
)

// PitchShift moves the signal by the given number of semitones while
// preserving duration: the signal is resampled (shifting pitch and
// length together) and the length change is undone with a compensating
// time-stretch, which keeps the spectral envelope closer to the original
// than a bare resample.
func PitchShift(samples []float64, semitones float64) []float64 {
	if semitones == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}
	factor := math.Pow(2, semitones/12.0)
	resampled := audio.Resample(samples, factor)
	return TimeStretch(resampled, 1.0/factor)
}

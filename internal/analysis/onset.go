package analysis

import "math"

const (
	onsetFrameSize = 2048
	onsetHop       = 512
)

// onsetEnvelope computes a spectral-flux onset strength envelope from a
// mono signal. Positive spectral differences are summed per frame and the
// result is normalized to a unit maximum.
func onsetEnvelope(samples []float64) []float64 {
	spec := spectrogram(samples, onsetFrameSize, onsetHop)
	if len(spec) < 2 {
		return nil
	}
	env := make([]float64, len(spec))
	for f := 1; f < len(spec); f++ {
		var flux float64
		prev, cur := spec[f-1], spec[f]
		for b := range cur {
			if d := cur[b] - prev[b]; d > 0 {
				flux += d
			}
		}
		env[f] = flux
	}
	// Local mean subtraction sharpens peaks before normalization.
	smoothed := movingAverage(env, 16)
	peak := 0.0
	for i := range env {
		env[i] -= smoothed[i]
		if env[i] < 0 {
			env[i] = 0
		}
		if env[i] > peak {
			peak = env[i]
		}
	}
	if peak > 0 {
		for i := range env {
			env[i] /= peak
		}
	}
	return env
}

func movingAverage(x []float64, win int) []float64 {
	out := make([]float64, len(x))
	half := win / 2
	for i := range x {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(x) {
			hi = len(x) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += x[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// frameRMS computes RMS per onset-aligned frame, used for energy features
// and silence detection.
func frameRMS(samples []float64, frameSize, hop int) []float64 {
	if len(samples) < frameSize {
		return []float64{rms(samples)}
	}
	n := 1 + (len(samples)-frameSize)/hop
	out := make([]float64, n)
	for f := 0; f < n; f++ {
		out[f] = rms(samples[f*hop : f*hop+frameSize])
	}
	return out
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

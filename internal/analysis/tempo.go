package analysis

import "math"

const (
	minBPM = 60.0
	maxBPM = 200.0
)

// estimateTempo picks a global BPM from the onset envelope by
// autocorrelation over the plausible lag range, weighted toward 120 BPM
// so octave-ambiguous peaks resolve to the perceptually likely tempo.
func estimateTempo(env []float64, sampleRate int) (bpm float64, confidence float64) {
	if len(env) == 0 {
		return 0, 0
	}
	frameRate := float64(sampleRate) / float64(onsetHop)
	minLag := int(frameRate * 60.0 / maxBPM)
	maxLag := int(frameRate * 60.0 / minBPM)
	if maxLag >= len(env) {
		maxLag = len(env) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0, 0
	}

	var energy float64
	for _, v := range env {
		energy += v * v
	}
	if energy == 0 {
		return 0, 0
	}

	bestLag, bestScore := 0, 0.0
	var total float64
	for lag := minLag; lag <= maxLag; lag++ {
		var ac float64
		for i := 0; i+lag < len(env); i++ {
			ac += env[i] * env[i+lag]
		}
		ac /= energy
		candBPM := frameRate * 60.0 / float64(lag)
		// Log-normal weighting centered at 120 BPM.
		lw := math.Log2(candBPM / 120.0)
		weight := math.Exp(-0.5 * lw * lw / (1.0 * 1.0))
		score := ac * weight
		total += score
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}
	if bestLag == 0 {
		return 0, 0
	}
	bpm = frameRate * 60.0 / float64(bestLag)
	bpm = foldTempoOctave(bpm)

	mean := total / float64(maxLag-minLag+1)
	if mean > 0 {
		confidence = 1.0 - mean/bestScore
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return bpm, confidence
}

// foldTempoOctave doubles or halves the estimate into [minBPM, maxBPM].
func foldTempoOctave(bpm float64) float64 {
	for bpm < minBPM {
		bpm *= 2
	}
	for bpm > maxBPM {
		bpm /= 2
	}
	return bpm
}

package analysis

import "math"

const beatTightness = 100.0

// trackBeats places beats on the onset envelope with a dynamic program
// that trades onset strength against deviation from the estimated beat
// period. Returned times are strictly increasing seconds.
func trackBeats(env []float64, sampleRate int, bpm float64) []float64 {
	if len(env) == 0 || bpm <= 0 {
		return nil
	}
	frameRate := float64(sampleRate) / float64(onsetHop)
	period := frameRate * 60.0 / bpm
	if period < 1 {
		return nil
	}

	score := make([]float64, len(env))
	backlink := make([]int, len(env))
	for i := range env {
		score[i] = env[i]
		backlink[i] = -1
		lo := i - int(math.Round(2*period))
		hi := i - int(math.Round(period/2))
		if hi < 0 {
			continue
		}
		if lo < 0 {
			lo = 0
		}
		best := math.Inf(-1)
		bestJ := -1
		for j := lo; j <= hi; j++ {
			dev := math.Log(float64(i-j) / period)
			cand := score[j] - beatTightness*dev*dev
			if cand > best {
				best = cand
				bestJ = j
			}
		}
		if bestJ >= 0 && best > 0 {
			score[i] += best
			backlink[i] = bestJ
		}
	}

	// Start the backtrace from the best-scoring frame near the end so
	// the chain covers the whole track.
	tail := len(env) - int(math.Round(period))
	if tail < 0 {
		tail = 0
	}
	end, bestScore := tail, math.Inf(-1)
	for i := tail; i < len(env); i++ {
		if score[i] > bestScore {
			bestScore = score[i]
			end = i
		}
	}

	var framesRev []int
	for i := end; i >= 0; i = backlink[i] {
		framesRev = append(framesRev, i)
		if backlink[i] < 0 {
			break
		}
	}
	beats := make([]float64, 0, len(framesRev))
	for i := len(framesRev) - 1; i >= 0; i-- {
		beats = append(beats, float64(framesRev[i])/frameRate)
	}
	return beats
}

// pickDownbeats assumes a 4/4 meter and selects the beat phase whose
// beats land on the strongest average onsets.
func pickDownbeats(beats []float64, env []float64, sampleRate int) []float64 {
	if len(beats) == 0 {
		return nil
	}
	frameRate := float64(sampleRate) / float64(onsetHop)
	bestPhase, bestMean := 0, math.Inf(-1)
	for phase := 0; phase < 4; phase++ {
		var sum float64
		var n int
		for i := phase; i < len(beats); i += 4 {
			f := int(beats[i] * frameRate)
			if f >= 0 && f < len(env) {
				sum += env[f]
				n++
			}
		}
		if n == 0 {
			continue
		}
		if mean := sum / float64(n); mean > bestMean {
			bestMean = mean
			bestPhase = phase
		}
	}
	var down []float64
	for i := bestPhase; i < len(beats); i += 4 {
		down = append(down, beats[i])
	}
	return down
}

package analysis

import (
	"math"

	"github.com/songmasher/api/internal/model"
)

// Krumhansl-Schmuckler tonal profiles.
var (
	majorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

const (
	chromaFrameSize = 4096
	chromaHop       = 2048
	chromaMinHz     = 65.0
	chromaMaxHz     = 4000.0
)

// chromaVector folds spectral energy between 65 Hz and 4 kHz into the
// twelve pitch classes, averaged over all frames.
func chromaVector(samples []float64, sampleRate int) [12]float64 {
	var chroma [12]float64
	spec := spectrogram(samples, chromaFrameSize, chromaHop)
	for _, frame := range spec {
		for b := 1; b < len(frame); b++ {
			freq := binFrequency(b, chromaFrameSize, sampleRate)
			if freq < chromaMinHz || freq > chromaMaxHz {
				continue
			}
			midi := 69.0 + 12.0*math.Log2(freq/440.0)
			pc := ((int(math.Round(midi)) % 12) + 12) % 12
			chroma[pc] += frame[b] * frame[b]
		}
	}
	var total float64
	for _, v := range chroma {
		total += v
	}
	if total > 0 {
		for i := range chroma {
			chroma[i] /= total
		}
	}
	return chroma
}

// estimateKey correlates the chroma vector against all 24 rotated
// profiles and returns the best key plus a confidence derived from the
// margin between the top two candidates.
func estimateKey(samples []float64, sampleRate int) (model.Key, float64) {
	chroma := chromaVector(samples, sampleRate)

	best, second := math.Inf(-1), math.Inf(-1)
	bestKey := model.Key{PitchClass: 0, Mode: model.ModeMajor}
	for pc := 0; pc < 12; pc++ {
		for _, mode := range []model.Mode{model.ModeMajor, model.ModeMinor} {
			profile := majorProfile
			if mode == model.ModeMinor {
				profile = minorProfile
			}
			var rotated [12]float64
			for i := 0; i < 12; i++ {
				rotated[i] = profile[((i-pc)%12+12)%12]
			}
			r := pearson(chroma[:], rotated[:])
			if r > best {
				second = best
				best = r
				bestKey = model.Key{PitchClass: pc, Mode: mode}
			} else if r > second {
				second = r
			}
		}
	}

	confidence := 0.0
	if best > 0 {
		confidence = (best - second) / best
		confidence = math.Min(1, math.Max(0, confidence)*4)
	}
	return bestKey, confidence
}

func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	mx, my := sx/n, sy/n
	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

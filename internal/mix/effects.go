package mix

import (
	"math"

	"github.com/songmasher/api/internal/audio"
)

// Effect parameters. The notch sits in the vocal formant band; ducking
// and de-essing depths and time constants are fixed.
const (
	notchCenterHz = 3200.0
	notchQ        = 1.0
	notchDepthDB  = -4.0

	duckDepthDB     = -3.0
	duckAttackSec   = 0.010
	duckReleaseSec  = 0.200
	duckThreshold   = 0.01
	envelopeBlockMS = 10

	deEssCutoffHz  = 5000.0
	deEssDepthDB   = -6.0
	deEssThreshold = 0.02
)

// vocalEnvelope computes a smoothed activity envelope in [0,1] from
// vocal RMS per 10 ms block, expanded back to sample resolution.
func vocalEnvelope(vocals *audio.Buffer, frames int) []float64 {
	block := envelopeBlockMS * vocals.SampleRate / 1000
	mono := vocals.Mono()
	env := make([]float64, frames)
	for i := 0; i < frames; i++ {
		if i >= len(mono) {
			break
		}
		lo := (i / block) * block
		hi := lo + block
		if hi > len(mono) {
			hi = len(mono)
		}
		var sum float64
		for _, v := range mono[lo:hi] {
			sum += v * v
		}
		r := math.Sqrt(sum / float64(hi-lo))
		if r > duckThreshold {
			env[i] = 1
		}
	}
	// One-pole smoothing with separate attack and release.
	attack := math.Exp(-1 / (duckAttackSec * float64(vocals.SampleRate)))
	release := math.Exp(-1 / (duckReleaseSec * float64(vocals.SampleRate)))
	state := 0.0
	for i, target := range env {
		coeff := release
		if target > state {
			coeff = attack
		}
		state = coeff*state + (1-coeff)*target
		env[i] = state
	}
	return env
}

// autoEQ carves a notch in the instrumental where the vocal formant band
// lives, blended in only while vocals are active.
func autoEQ(instrumental *audio.Buffer, env []float64) {
	for ch, data := range instrumental.Data {
		filtered := newPeaking(instrumental.SampleRate, notchCenterHz, notchQ, notchDepthDB).processAll(data)
		for i := range data {
			w := 0.0
			if i < len(env) {
				w = env[i]
			}
			instrumental.Data[ch][i] = data[i]*(1-w) + filtered[i]*w
		}
	}
}

// sidechainDuck attenuates the instrumental while vocals are active.
func sidechainDuck(instrumental *audio.Buffer, env []float64) {
	floor := audio.DBToLinear(duckDepthDB)
	for ch := range instrumental.Data {
		for i := range instrumental.Data[ch] {
			w := 0.0
			if i < len(env) {
				w = env[i]
			}
			gain := 1 - w*(1-floor)
			instrumental.Data[ch][i] *= gain
		}
	}
}

// deEss attenuates sibilant energy above 5 kHz on the vocal stem when it
// crosses the detection threshold.
func deEss(vocals *audio.Buffer) {
	depth := audio.DBToLinear(deEssDepthDB)
	block := envelopeBlockMS * vocals.SampleRate / 1000
	for ch, data := range vocals.Data {
		high := newHighpass(vocals.SampleRate, deEssCutoffHz).processAll(data)
		for start := 0; start < len(data); start += block {
			end := start + block
			if end > len(data) {
				end = len(data)
			}
			var sum float64
			for _, v := range high[start:end] {
				sum += v * v
			}
			if math.Sqrt(sum/float64(end-start)) <= deEssThreshold {
				continue
			}
			for i := start; i < end; i++ {
				vocals.Data[ch][i] = (data[i] - high[i]) + high[i]*depth
			}
		}
	}
}

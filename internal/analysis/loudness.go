package analysis

import (
	"math"

	"github.com/songmasher/api/internal/audio"
)

// K-weighting pre-filter parameters from ITU-R BS.1770-4.
const (
	shelfF0 = 1681.974450955533
	shelfG  = 3.999843853973347
	shelfQ  = 0.7071752369554196
	hpF0    = 38.13547087602444
	hpQ     = 0.5003270373238773

	gateBlockSeconds = 0.4
	gateHopSeconds   = 0.1
	absoluteGateLUFS = -70.0
	relativeGateLU   = 10.0
)

type biquadCoeffs struct {
	b0, b1, b2, a1, a2 float64
}

func (c biquadCoeffs) apply(x []float64) []float64 {
	out := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, v := range x {
		y := c.b0*v + c.b1*x1 + c.b2*x2 - c.a1*y1 - c.a2*y2
		x2, x1 = x1, v
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

func kWeightShelf(sampleRate int) biquadCoeffs {
	K := math.Tan(math.Pi * shelfF0 / float64(sampleRate))
	Vh := math.Pow(10, shelfG/20)
	Vb := math.Pow(Vh, 0.4996667741545416)
	a0 := 1 + K/shelfQ + K*K
	return biquadCoeffs{
		b0: (Vh + Vb*K/shelfQ + K*K) / a0,
		b1: 2 * (K*K - Vh) / a0,
		b2: (Vh - Vb*K/shelfQ + K*K) / a0,
		a1: 2 * (K*K - 1) / a0,
		a2: (1 - K/shelfQ + K*K) / a0,
	}
}

func kWeightHighpass(sampleRate int) biquadCoeffs {
	K := math.Tan(math.Pi * hpF0 / float64(sampleRate))
	a0 := 1 + K/hpQ + K*K
	return biquadCoeffs{
		b0: 1 / a0,
		b1: -2 / a0,
		b2: 1 / a0,
		a1: 2 * (K*K - 1) / a0,
		a2: (1 - K/hpQ + K*K) / a0,
	}
}

// IntegratedLoudness measures gated loudness in LUFS per BS.1770-4:
// K-weighted channels, 400 ms blocks at 75% overlap, a -70 LUFS absolute
// gate and a -10 LU relative gate.
func IntegratedLoudness(buf *audio.Buffer) float64 {
	shelf := kWeightShelf(buf.SampleRate)
	hp := kWeightHighpass(buf.SampleRate)

	weighted := make([][]float64, buf.Channels())
	for ch, data := range buf.Data {
		weighted[ch] = hp.apply(shelf.apply(data))
	}

	blockLen := int(gateBlockSeconds * float64(buf.SampleRate))
	hop := int(gateHopSeconds * float64(buf.SampleRate))
	if blockLen == 0 || buf.Frames() < blockLen {
		return absoluteGateLUFS
	}

	var powers []float64
	for off := 0; off+blockLen <= buf.Frames(); off += hop {
		var power float64
		for _, ch := range weighted {
			var sum float64
			for _, v := range ch[off : off+blockLen] {
				sum += v * v
			}
			power += sum / float64(blockLen)
		}
		powers = append(powers, power)
	}

	loudness := func(power float64) float64 {
		if power <= 0 {
			return math.Inf(-1)
		}
		return -0.691 + 10*math.Log10(power)
	}

	// Absolute gate.
	var absPassed []float64
	for _, p := range powers {
		if loudness(p) > absoluteGateLUFS {
			absPassed = append(absPassed, p)
		}
	}
	if len(absPassed) == 0 {
		return absoluteGateLUFS
	}
	var mean float64
	for _, p := range absPassed {
		mean += p
	}
	mean /= float64(len(absPassed))
	relThreshold := loudness(mean) - relativeGateLU

	// Relative gate.
	var sum float64
	var n int
	for _, p := range absPassed {
		if loudness(p) > relThreshold {
			sum += p
			n++
		}
	}
	if n == 0 {
		return absoluteGateLUFS
	}
	return loudness(sum / float64(n))
}

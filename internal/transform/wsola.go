package transform

import "math"

// WSOLA framing constants at 44.1 kHz: ~46 ms windows with 50% overlap
// and a ~12 ms search tolerance.
const (
	wsolaWindow    = 2048
	wsolaOverlap   = wsolaWindow / 2
	wsolaTolerance = 512
)

// TimeStretch changes playback speed without altering pitch using
// waveform-similarity overlap-add. speed > 1 plays faster (shorter
// output), speed < 1 slower. Output length is approximately
// len(samples)/speed, subject to window framing.
func TimeStretch(samples []float64, speed float64) []float64 {
	if speed == 1.0 || len(samples) < wsolaWindow*2 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}

	window := make([]float64, wsolaWindow)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(wsolaWindow)))
	}

	outLen := int(float64(len(samples)) / speed)
	out := make([]float64, outLen+wsolaWindow)
	norm := make([]float64, outLen+wsolaWindow)

	nFrames := outLen / wsolaOverlap
	prevEnd := -1
	for k := 0; k < nFrames; k++ {
		outPos := k * wsolaOverlap
		nominal := int(float64(outPos) * speed)

		// Search around the nominal read position for the segment that
		// best continues the previously written frame.
		inPos := nominal
		if prevEnd >= 0 {
			inPos = bestOffset(samples, nominal, prevEnd)
		}
		if inPos+wsolaWindow > len(samples) {
			break
		}
		for i := 0; i < wsolaWindow; i++ {
			out[outPos+i] += samples[inPos+i] * window[i]
			norm[outPos+i] += window[i]
		}
		prevEnd = inPos + wsolaOverlap
	}

	for i := range out {
		if norm[i] > 1e-9 {
			out[i] /= norm[i]
		}
	}
	if outLen > len(out) {
		outLen = len(out)
	}
	return out[:outLen]
}

// bestOffset finds the read position near nominal whose waveform best
// matches the natural continuation of the previous frame.
func bestOffset(samples []float64, nominal, natural int) int {
	lo := nominal - wsolaTolerance
	hi := nominal + wsolaTolerance
	if lo < 0 {
		lo = 0
	}
	if hi+wsolaWindow > len(samples) {
		hi = len(samples) - wsolaWindow
	}
	if natural+wsolaOverlap > len(samples) || hi < lo {
		return nominal
	}

	ref := samples[natural : natural+wsolaOverlap]
	best, bestScore := nominal, math.Inf(-1)
	for pos := lo; pos <= hi; pos += 4 {
		var score float64
		seg := samples[pos : pos+wsolaOverlap]
		for i := 0; i < wsolaOverlap; i += 2 {
			score += ref[i] * seg[i]
		}
		if score > bestScore {
			bestScore = score
			best = pos
		}
	}
	return best
}

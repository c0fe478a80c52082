package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// hannWindow returns a periodic Hann window of length n.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// spectrogram computes magnitude spectra of overlapping windowed frames.
// Each row has frameSize/2+1 bins.
func spectrogram(samples []float64, frameSize, hop int) [][]float64 {
	if len(samples) < frameSize {
		return nil
	}
	window := hannWindow(frameSize)
	nFrames := 1 + (len(samples)-frameSize)/hop
	nBins := frameSize/2 + 1

	frames := make([][]float64, nFrames)
	buf := make([]float64, frameSize)
	for f := 0; f < nFrames; f++ {
		off := f * hop
		for i := 0; i < frameSize; i++ {
			buf[i] = samples[off+i] * window[i]
		}
		spec := fft.FFTReal(buf)
		mags := make([]float64, nBins)
		for b := 0; b < nBins; b++ {
			mags[b] = cmplx.Abs(spec[b])
		}
		frames[f] = mags
	}
	return frames
}

// binFrequency maps an FFT bin index to its center frequency in Hz.
func binFrequency(bin, frameSize, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(frameSize)
}

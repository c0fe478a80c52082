package mix

import "math"

// biquad is a direct-form-I second-order filter with RBJ cookbook
// coefficient design.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func (f *biquad) processAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = f.process(v)
	}
	return out
}

// newPeaking builds a peaking EQ; negative gainDB cuts.
func newPeaking(sampleRate int, freq, q, gainDB float64) *biquad {
	A := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)

	a0 := 1 + alpha/A
	return &biquad{
		b0: (1 + alpha*A) / a0,
		b1: -2 * cosw / a0,
		b2: (1 - alpha*A) / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha/A) / a0,
	}
}

// newHighpass builds a Butterworth-style highpass.
func newHighpass(sampleRate int, freq float64) *biquad {
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	q := math.Sqrt2 / 2
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)

	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

package audio

// Resample returns the samples played back at the given rate factor using
// linear interpolation: factor 2 halves the length and raises pitch one
// octave. Deterministic for identical input.
func Resample(samples []float64, factor float64) []float64 {
	if factor <= 0 || len(samples) == 0 {
		return nil
	}
	outLen := int(float64(len(samples)) / factor)
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) * factor
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// ResampleBuffer resamples every channel, returning a buffer that claims
// the same sample rate (pitch and duration change instead).
func ResampleBuffer(buf *Buffer, factor float64) *Buffer {
	out := &Buffer{SampleRate: buf.SampleRate, Data: make([][]float64, buf.Channels())}
	for c, ch := range buf.Data {
		out.Data[c] = Resample(ch, factor)
	}
	return out
}

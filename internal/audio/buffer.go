package audio

import "math"

// Buffer holds decoded PCM as float64 samples in [-1, 1], one slice per
// channel. All channels have equal length.
type Buffer struct {
	SampleRate int
	Data       [][]float64
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, frames)
	}
	return &Buffer{SampleRate: sampleRate, Data: data}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int { return len(b.Data) }

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Mono returns a single-channel downmix (average across channels). A mono
// buffer is returned as-is.
func (b *Buffer) Mono() []float64 {
	if b.Channels() == 1 {
		return b.Data[0]
	}
	n := b.Frames()
	out := make([]float64, n)
	scale := 1.0 / float64(b.Channels())
	for _, ch := range b.Data {
		for i, v := range ch {
			out[i] += v * scale
		}
	}
	return out
}

// Peak returns the maximum absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.Data {
		for _, v := range ch {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// RMS returns the root-mean-square level of the mono downmix.
func (b *Buffer) RMS() float64 {
	mono := b.Mono()
	if len(mono) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range mono {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(mono)))
}

// Gain scales every sample in place.
func (b *Buffer) Gain(g float64) {
	for _, ch := range b.Data {
		for i := range ch {
			ch[i] *= g
		}
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{SampleRate: b.SampleRate, Data: make([][]float64, len(b.Data))}
	for c, ch := range b.Data {
		out.Data[c] = make([]float64, len(ch))
		copy(out.Data[c], ch)
	}
	return out
}

// FromMono wraps a mono sample slice in a Buffer without copying.
func FromMono(samples []float64, sampleRate int) *Buffer {
	return &Buffer{SampleRate: sampleRate, Data: [][]float64{samples}}
}

// DBToLinear converts decibels to a linear gain factor.
func DBToLinear(db float64) float64 { return math.Pow(10, db/20) }

// LinearToDB converts a linear amplitude to decibels, with a floor for
// silence.
func LinearToDB(v float64) float64 {
	if v <= 0 {
		return -120
	}
	return 20 * math.Log10(v)
}

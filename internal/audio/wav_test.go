package audio

import (
	"math"
	"testing"
)

func sineBuffer(sampleRate, channels int, freq, seconds, amp float64) *Buffer {
	frames := int(seconds * float64(sampleRate))
	buf := NewBuffer(sampleRate, channels, frames)
	for c := 0; c < channels; c++ {
		for i := 0; i < frames; i++ {
			buf.Data[c][i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		}
	}
	return buf
}

func TestWAVRoundTrip(t *testing.T) {
	src := sineBuffer(44100, 2, 440, 0.5, 0.8)
	raw, err := EncodeWAV(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeWAV(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", got.SampleRate)
	}
	if got.Channels() != 2 {
		t.Errorf("channels = %d, want 2", got.Channels())
	}
	if got.Frames() != src.Frames() {
		t.Errorf("frames = %d, want %d", got.Frames(), src.Frames())
	}
	maxErr := 0.0
	for i, v := range got.Data[0] {
		if d := math.Abs(v - src.Data[0][i]); d > maxErr {
			maxErr = d
		}
	}
	// 24-bit quantization error is tiny.
	if maxErr > 1e-4 {
		t.Errorf("round trip error %g too large", maxErr)
	}
}

func TestEncodeWAVClampsOverdrive(t *testing.T) {
	src := sineBuffer(8000, 1, 100, 0.1, 1.5)
	raw, err := EncodeWAV(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeWAV(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p := got.Peak(); p > 1.0+1e-6 {
		t.Errorf("peak %g exceeds full scale after clamp", p)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, err := DecodeWAV([]byte("definitely not a wav file")); err == nil {
		t.Fatal("expected decode error for non-WAV bytes")
	}
}

func TestEncodeWAVEmptyBuffer(t *testing.T) {
	if _, err := EncodeWAV(NewBuffer(44100, 0, 0)); err == nil {
		t.Fatal("expected error for empty buffer")
	}
}

func TestMonoDownmix(t *testing.T) {
	buf := NewBuffer(8000, 2, 4)
	buf.Data[0] = []float64{1, 1, 1, 1}
	buf.Data[1] = []float64{0, 0, 0, 0}
	for i, v := range buf.Mono() {
		if math.Abs(v-0.5) > 1e-12 {
			t.Fatalf("mono[%d] = %g, want 0.5", i, v)
		}
	}
}

func TestResamplePitchScale(t *testing.T) {
	const sr = 44100
	src := sineBuffer(sr, 1, 220, 1.0, 0.9).Data[0]
	up := Resample(src, 2.0)

	if got, want := len(up), len(src)/2; abs(got-want) > 1 {
		t.Errorf("resampled length = %d, want ~%d", got, want)
	}

	// Factor 2 doubles the observed frequency. Count zero crossings.
	count := func(s []float64) int {
		n := 0
		for i := 1; i < len(s); i++ {
			if (s[i-1] < 0) != (s[i] < 0) {
				n++
			}
		}
		return n
	}
	srcHz := float64(count(src)) / 2 / (float64(len(src)) / sr)
	upHz := float64(count(up)) / 2 / (float64(len(up)) / sr)
	if math.Abs(upHz-2*srcHz) > 5 {
		t.Errorf("resampled frequency %.1f Hz, want ~%.1f", upHz, 2*srcHz)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

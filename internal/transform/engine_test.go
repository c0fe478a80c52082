package transform

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/songmasher/api/internal/audio"
)

const testSampleRate = 44100

func sine(freq float64, seconds float64) []float64 {
	n := int(seconds * testSampleRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return out
}

// dominantFreq estimates pitch by zero-crossing rate, good enough for a
// clean sine.
func dominantFreq(x []float64) float64 {
	var crossings int
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			crossings++
		}
	}
	return float64(crossings) / 2 / (float64(len(x)) / testSampleRate)
}

func TestTimeStretchLength(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
	}{
		{"faster", 1.2},
		{"slower", 0.85},
		{"unity", 1.0},
	}
	in := sine(440, 4)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := TimeStretch(in, tt.speed)
			want := float64(len(in)) / tt.speed
			if math.Abs(float64(len(out))-want) > wsolaWindow*2 {
				t.Errorf("len = %d, want ~%.0f", len(out), want)
			}
		})
	}
}

func TestTimeStretchKeepsPitch(t *testing.T) {
	in := sine(440, 4)
	out := TimeStretch(in, 1.15)
	if f := dominantFreq(out[wsolaWindow : len(out)-wsolaWindow]); math.Abs(f-440) > 15 {
		t.Errorf("dominant frequency = %.1f Hz after stretch, want ~440", f)
	}
}

func TestPitchShiftMovesPitch(t *testing.T) {
	in := sine(440, 4)
	out := PitchShift(in, 3)
	want := 440 * math.Pow(2, 3.0/12.0)
	if f := dominantFreq(out[wsolaWindow : len(out)-wsolaWindow]); math.Abs(f-want) > 20 {
		t.Errorf("dominant frequency = %.1f Hz, want ~%.1f", f, want)
	}
	if math.Abs(float64(len(out)-len(in))) > wsolaWindow*2 {
		t.Errorf("pitch shift changed length: %d vs %d", len(out), len(in))
	}
}

func TestApplyRejectsInvalidRatio(t *testing.T) {
	eng := NewEngine(nil)
	buf := audio.FromMono(sine(440, 2), testSampleRate)

	tests := []struct {
		name      string
		semitones int
		ratio     float64
	}{
		{"zero ratio", 0, 0},
		{"negative ratio", 0, -1},
		{"combined too large", 12, 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Apply(context.Background(), buf, tt.semitones, tt.ratio)
			var terr *Error
			if !errors.As(err, &terr) || terr.Kind != KindInvalidRatio {
				t.Fatalf("err = %v, want InvalidRatio", err)
			}
		})
	}
}

func TestApplyStereoKeepsChannels(t *testing.T) {
	eng := NewEngine(nil)
	buf := &audio.Buffer{
		SampleRate: testSampleRate,
		Data:       [][]float64{sine(440, 3), sine(660, 3)},
	}
	out, err := eng.Apply(context.Background(), buf, 2, 1.1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Channels() != 2 {
		t.Fatalf("channels = %d, want 2", out.Channels())
	}
	if len(out.Data[0]) != len(out.Data[1]) {
		t.Errorf("channel lengths differ: %d vs %d", len(out.Data[0]), len(out.Data[1]))
	}
}

func TestApplyHonorsCancellation(t *testing.T) {
	eng := NewEngine(nil)
	buf := audio.FromMono(sine(440, 2), testSampleRate)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := eng.Apply(ctx, buf, 0, 1.1); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

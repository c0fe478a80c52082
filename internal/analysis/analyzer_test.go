package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/songmasher/api/internal/audio"
	"github.com/songmasher/api/internal/model"
)

const testSampleRate = 44100

// clickTrack synthesizes short decaying bursts at the given BPM.
func clickTrack(bpm float64, seconds float64) *audio.Buffer {
	n := int(seconds * testSampleRate)
	data := make([]float64, n)
	interval := int(60.0 / bpm * testSampleRate)
	for start := 0; start < n; start += interval {
		for i := 0; i < 400 && start+i < n; i++ {
			decay := math.Exp(-float64(i) / 80.0)
			data[start+i] = 0.8 * decay * math.Sin(2*math.Pi*1000*float64(i)/testSampleRate)
		}
	}
	return audio.FromMono(data, testSampleRate)
}

func sineMix(freqs []float64, amp, seconds float64) *audio.Buffer {
	n := int(seconds * testSampleRate)
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / testSampleRate
		for _, f := range freqs {
			data[i] += amp * math.Sin(2*math.Pi*f*t)
		}
	}
	return audio.FromMono(data, testSampleRate)
}

func TestAnalyzeClickTrackTempo(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	buf := clickTrack(120, 30)

	got, err := a.Analyze(context.Background(), buf)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if math.Abs(got.BPM-120) > 3 {
		t.Errorf("BPM = %.2f, want ~120", got.BPM)
	}
	if len(got.BeatTimes) < 40 {
		t.Errorf("got %d beats for 30s at 120 BPM, want at least 40", len(got.BeatTimes))
	}
	for i := 1; i < len(got.BeatTimes); i++ {
		if got.BeatTimes[i] <= got.BeatTimes[i-1] {
			t.Fatalf("beat times not strictly increasing at %d", i)
		}
	}
	if len(got.DownbeatTimes) == 0 {
		t.Error("expected downbeats")
	}
}

func TestAnalyzeRejectsShortInput(t *testing.T) {
	a := NewAnalyzer(Config{MinDurationSeconds: 10}, nil)
	buf := clickTrack(120, 3)

	_, err := a.Analyze(context.Background(), buf)
	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Kind != KindTooShort {
		t.Fatalf("err = %v, want TooShort", err)
	}
}

func TestAnalyzeRejectsSilence(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	buf := audio.FromMono(make([]float64, 15*testSampleRate), testSampleRate)

	_, err := a.Analyze(context.Background(), buf)
	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Kind != KindSilent {
		t.Fatalf("err = %v, want Silent", err)
	}
}

func TestEstimateKeyMajorTriad(t *testing.T) {
	// C4, E4, G4 with octaves.
	buf := sineMix([]float64{261.63, 329.63, 392.00, 523.25, 659.25}, 0.15, 12)

	key, conf := estimateKey(buf.Mono(), testSampleRate)
	if key.PitchClass != 0 || key.Mode != model.ModeMajor {
		t.Errorf("key = %s, want C major", key.String())
	}
	if conf <= 0 {
		t.Errorf("confidence = %f, want > 0", conf)
	}
}

func TestCamelotRoundTrip(t *testing.T) {
	tests := []struct {
		key  model.Key
		code string
	}{
		{model.Key{PitchClass: 0, Mode: model.ModeMajor}, "8B"},
		{model.Key{PitchClass: 9, Mode: model.ModeMinor}, "8A"},
		{model.Key{PitchClass: 7, Mode: model.ModeMajor}, "9B"},
		{model.Key{PitchClass: 1, Mode: model.ModeMajor}, "3B"},
	}
	for _, tt := range tests {
		if got := tt.key.CamelotCode(); got != tt.code {
			t.Errorf("CamelotCode(%s) = %s, want %s", tt.key.String(), got, tt.code)
		}
		back, ok := model.KeyFromCamelot(tt.code)
		if !ok || back != tt.key {
			t.Errorf("KeyFromCamelot(%s) = %v, %v", tt.code, back, ok)
		}
	}

	// Every one of the 24 keys must survive the round trip.
	seen := make(map[string]model.Key, 24)
	for pc := 0; pc < 12; pc++ {
		for _, mode := range []model.Mode{model.ModeMajor, model.ModeMinor} {
			key := model.Key{PitchClass: pc, Mode: mode}
			code := key.CamelotCode()
			if prev, dup := seen[code]; dup {
				t.Errorf("code %s maps to both %s and %s", code, prev.String(), key.String())
			}
			seen[code] = key
			back, ok := model.KeyFromCamelot(code)
			if !ok || back != key {
				t.Errorf("round trip %s -> %s -> %v, %v", key.String(), code, back, ok)
			}
		}
	}
	if len(seen) != 24 {
		t.Errorf("distinct codes = %d, want 24", len(seen))
	}
}

func TestIntegratedLoudnessGainTracking(t *testing.T) {
	quiet := sineMix([]float64{997}, 0.1, 10)
	loud := sineMix([]float64{997}, 0.2, 10)

	lq := IntegratedLoudness(quiet)
	ll := IntegratedLoudness(loud)
	if diff := ll - lq; math.Abs(diff-6.02) > 0.2 {
		t.Errorf("loudness delta = %.2f LU for a 6 dB gain, want ~6", diff)
	}
}

func TestIntegratedLoudnessSilence(t *testing.T) {
	buf := audio.FromMono(make([]float64, 5*testSampleRate), testSampleRate)
	if got := IntegratedLoudness(buf); got != absoluteGateLUFS {
		t.Errorf("silent loudness = %f, want gate floor %f", got, absoluteGateLUFS)
	}
}

func TestSegmentStructureCoversDuration(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	buf := clickTrack(128, 40)

	got, err := a.Analyze(context.Background(), buf)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(got.Sections) == 0 {
		t.Fatal("no sections")
	}
	if got.Sections[0].Start != 0 {
		t.Errorf("first section starts at %f", got.Sections[0].Start)
	}
	last := got.Sections[len(got.Sections)-1]
	if math.Abs(last.End-got.DurationSeconds) > 1e-6 {
		t.Errorf("last section ends at %f, duration %f", last.End, got.DurationSeconds)
	}
	for i := 1; i < len(got.Sections); i++ {
		if got.Sections[i].Start != got.Sections[i-1].End {
			t.Errorf("section %d does not abut predecessor", i)
		}
	}
}

func TestErrorKindClassification(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindTooShort, "analysis TooShort"},
		{KindSilent, "analysis Silent"},
		{KindDecodeFailure, "analysis DecodeFailure"},
		{KindInternal, "analysis Internal"},
	}
	for _, tt := range tests {
		err := &Error{Kind: tt.kind, Msg: "m", Err: cause}
		if got := err.Error(); len(got) < len(tt.want) || got[:len(tt.want)] != tt.want {
			t.Errorf("Error() = %q, want prefix %q", got, tt.want)
		}
		if !errors.Is(err, cause) {
			t.Errorf("kind %s lost its cause", tt.kind)
		}
	}

	// An inconsistent pipeline result is an internal fault, not a decode
	// problem.
	internal := &Error{Kind: KindInternal, Msg: "inconsistent analysis output", Err: cause}
	var aerr *Error
	if !errors.As(internal, &aerr) || aerr.Kind == KindDecodeFailure {
		t.Errorf("internal fault classified as %s", aerr.Kind)
	}
}

package model

import "fmt"

// Key is a musical key: pitch class 0..11 (0 = C) plus mode.
type Key struct {
	PitchClass int  `json:"pitchClass"`
	Mode       Mode `json:"mode"`
}

var pitchClassNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (k Key) String() string {
	suffix := " major"
	if k.Mode == ModeMinor {
		suffix = " minor"
	}
	return pitchClassNames[((k.PitchClass%12)+12)%12] + suffix
}

// Transpose returns the key shifted by the given number of semitones.
// Mode is unchanged.
func (k Key) Transpose(semitones int) Key {
	pc := ((k.PitchClass+semitones)%12 + 12) % 12
	return Key{PitchClass: pc, Mode: k.Mode}
}

// Camelot wheel numbers per pitch class. Majors carry the letter B,
// minors the letter A; a key and its relative share a number
// (C major = 8B, A minor = 8A).
var (
	camelotMajorNumber = [12]int{8, 3, 10, 5, 12, 7, 2, 9, 4, 11, 6, 1}
	camelotMinorNumber = [12]int{5, 12, 7, 2, 9, 4, 11, 6, 1, 8, 3, 10}
)

// CamelotCode derives the Camelot wheel notation for the key. It is a pure
// function of the key and is recomputed, never stored on its own.
func (k Key) CamelotCode() string {
	pc := ((k.PitchClass % 12) + 12) % 12
	if k.Mode == ModeMinor {
		return fmt.Sprintf("%dA", camelotMinorNumber[pc])
	}
	return fmt.Sprintf("%dB", camelotMajorNumber[pc])
}

// KeyFromCamelot inverts CamelotCode. Returns false for malformed codes.
func KeyFromCamelot(code string) (Key, bool) {
	if len(code) < 2 {
		return Key{}, false
	}
	letter := code[len(code)-1]
	var num int
	if _, err := fmt.Sscanf(code[:len(code)-1], "%d", &num); err != nil {
		return Key{}, false
	}
	table := &camelotMajorNumber
	mode := ModeMajor
	switch letter {
	case 'A':
		table = &camelotMinorNumber
		mode = ModeMinor
	case 'B':
	default:
		return Key{}, false
	}
	for pc, n := range table {
		if n == num {
			return Key{PitchClass: pc, Mode: mode}, true
		}
	}
	return Key{}, false
}

// Section is a structural segment of a track. Sections are non-overlapping
// and cover [0, duration].
type Section struct {
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Label SectionLabel `json:"label"`
}

// Duration returns the section length in seconds.
func (s Section) Duration() float64 { return s.End - s.Start }

// TrackAnalysis is the immutable result of analyzing one uploaded track.
// BeatTimes is authoritative when the tempo varies; BPM is then a summary
// statistic.
type TrackAnalysis struct {
	DurationSeconds        float64   `json:"durationSeconds"`
	SampleRate             int       `json:"sampleRate"`
	BeatTimes              []float64 `json:"beatTimes"`
	DownbeatTimes          []float64 `json:"downbeatTimes"`
	BPM                    float64   `json:"bpm"`
	Key                    Key       `json:"key"`
	CamelotCode            string    `json:"camelotCode"`
	Sections               []Section `json:"sections"`
	IntegratedLoudnessLUFS float64   `json:"integratedLoudnessLufs"`
	Confidence             float64   `json:"confidence"`
}

// Validate checks the structural invariants: monotonic beat times bounded
// by the duration, sections covering [0, duration] without overlap, and a
// Camelot code consistent with the key.
func (a *TrackAnalysis) Validate() error {
	prev := -1.0
	for i, t := range a.BeatTimes {
		if t <= prev {
			return fmt.Errorf("beatTimes not strictly increasing at index %d", i)
		}
		if t < 0 || t > a.DurationSeconds {
			return fmt.Errorf("beat time %f outside [0, %f]", t, a.DurationSeconds)
		}
		prev = t
	}
	for i, s := range a.Sections {
		if s.End <= s.Start {
			return fmt.Errorf("section %d has non-positive length", i)
		}
		if i > 0 && s.Start != a.Sections[i-1].End {
			return fmt.Errorf("section %d does not abut its predecessor", i)
		}
	}
	if n := len(a.Sections); n > 0 {
		if a.Sections[0].Start != 0 {
			return fmt.Errorf("first section starts at %f, want 0", a.Sections[0].Start)
		}
		if end := a.Sections[n-1].End; end > a.DurationSeconds+1e-6 {
			return fmt.Errorf("last section ends at %f beyond duration %f", end, a.DurationSeconds)
		}
	}
	if a.CamelotCode != a.Key.CamelotCode() {
		return fmt.Errorf("camelot code %q inconsistent with key %v", a.CamelotCode, a.Key)
	}
	return nil
}

// ChorusCount returns the number of chorus sections.
func (a *TrackAnalysis) ChorusCount() int {
	n := 0
	for _, s := range a.Sections {
		if s.Label == SectionChorus {
			n++
		}
	}
	return n
}

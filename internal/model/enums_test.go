package model

import "testing"

func TestJobStageTransitions(t *testing.T) {
	tests := []struct {
		from, to JobStage
		want     bool
	}{
		{StageQueued, StageSeparating, true},
		{StageSeparating, StageTransforming, true},
		{StageTransforming, StageMixing, true},
		{StageMixing, StageMastering, true},
		{StageMastering, StageCompleted, true},
		{StageQueued, StageFailed, true},
		{StageMixing, StageFailed, true},
		{StageMixing, StageSeparating, false},
		{StageCompleted, StageFailed, false},
		{StageFailed, StageQueued, false},
		{StageMastering, StageSeparating, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRecipeVocalTrack(t *testing.T) {
	if RecipeAVocalsBInstrumental.VocalTrack() != "A" {
		t.Error("AVocalsBInstrumental should take vocals from A")
	}
	if RecipeBVocalsAInstrumental.VocalTrack() != "B" {
		t.Error("BVocalsAInstrumental should take vocals from B")
	}
	if RecipeHybridDrums.VocalTrack() != "A" {
		t.Error("HybridDrums should take vocals from A")
	}
}

func TestKeyTranspose(t *testing.T) {
	c := Key{PitchClass: 0, Mode: ModeMajor}
	if got := c.Transpose(-5); got.PitchClass != 7 {
		t.Errorf("C - 5 semitones = pitch class %d, want 7", got.PitchClass)
	}
	if got := c.Transpose(12); got.PitchClass != 0 {
		t.Errorf("C + octave = pitch class %d, want 0", got.PitchClass)
	}
}

func TestTrackAnalysisValidate(t *testing.T) {
	key := Key{PitchClass: 0, Mode: ModeMajor}
	valid := TrackAnalysis{
		DurationSeconds: 10,
		BeatTimes:       []float64{0.5, 1.0, 1.5},
		Key:             key,
		CamelotCode:     key.CamelotCode(),
		Sections: []Section{
			{Start: 0, End: 4, Label: SectionIntro},
			{Start: 4, End: 10, Label: SectionVerse},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid analysis rejected: %v", err)
	}

	badBeats := valid
	badBeats.BeatTimes = []float64{1.0, 0.5}
	if err := badBeats.Validate(); err == nil {
		t.Error("non-monotonic beats accepted")
	}

	gap := valid
	gap.Sections = []Section{
		{Start: 0, End: 4, Label: SectionIntro},
		{Start: 5, End: 10, Label: SectionVerse},
	}
	if err := gap.Validate(); err == nil {
		t.Error("section gap accepted")
	}

	badCode := valid
	badCode.CamelotCode = "4A"
	if err := badCode.Validate(); err == nil {
		t.Error("inconsistent camelot code accepted")
	}
}

package mix

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/songmasher/api/internal/analysis"
	"github.com/songmasher/api/internal/audio"
	"github.com/songmasher/api/internal/model"
)

const testSampleRate = 44100

func toneStem(freq, amp float64, seconds float64) *audio.Buffer {
	n := int(seconds * testSampleRate)
	data := make([]float64, n)
	for i := range data {
		data[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return audio.FromMono(data, testSampleRate)
}

func stemSet(seconds float64) Stems {
	return Stems{
		model.StemVocals: toneStem(440, 0.3, seconds),
		model.StemDrums:  toneStem(80, 0.3, seconds),
		model.StemBass:   toneStem(60, 0.3, seconds),
		model.StemOther:  toneStem(220, 0.3, seconds),
	}
}

func planFixture(recipe model.Recipe) *model.MashupPlan {
	return &model.MashupPlan{
		TargetKey:    model.Key{PitchClass: 0, Mode: model.ModeMajor},
		TargetBPM:    120,
		StretchRatio: model.StretchRatio{A: 1, B: 1},
		Recipe:       recipe,
		SectionPairs: []model.SectionPair{
			{IndexA: 0, IndexB: 0, SectionA: model.Section{Start: 0, End: 5, Label: model.SectionVerse}, SectionB: model.Section{Start: 0, End: 5, Label: model.SectionVerse}, Confidence: 0.9},
			{IndexA: 1, IndexB: 1, SectionA: model.Section{Start: 5, End: 10, Label: model.SectionChorus}, SectionB: model.Section{Start: 5, End: 10, Label: model.SectionChorus}, Confidence: 0.9},
		},
	}
}

func TestMixRecipes(t *testing.T) {
	m := NewMixer(nil)
	for _, recipe := range model.ValidRecipes {
		t.Run(string(recipe), func(t *testing.T) {
			out, err := m.Mix(context.Background(), stemSet(10), stemSet(10), planFixture(recipe), model.DefaultMixParameters())
			if err != nil {
				t.Fatalf("Mix: %v", err)
			}
			if out.Frames() == 0 {
				t.Fatal("empty mix")
			}
			if out.RMS() == 0 {
				t.Error("mix is silent")
			}
		})
	}
}

func TestMixMissingStem(t *testing.T) {
	m := NewMixer(nil)
	stemsA := stemSet(10)
	stemsB := stemSet(10)
	delete(stemsB, model.StemDrums)

	_, err := m.Mix(context.Background(), stemsA, stemsB, planFixture(model.RecipeAVocalsBInstrumental), model.DefaultMixParameters())
	var merr *Error
	if !errors.As(err, &merr) || merr.Kind != KindMissingStem {
		t.Fatalf("err = %v, want MissingStem", err)
	}
}

func TestMixDuckingLowersInstrumental(t *testing.T) {
	m := NewMixer(nil)
	params := model.DefaultMixParameters()
	params.AutoEQ = false
	params.DeEsser = false

	params.SidechainDuck = false
	dry, err := m.Mix(context.Background(), stemSet(10), stemSet(10), planFixture(model.RecipeAVocalsBInstrumental), params)
	if err != nil {
		t.Fatalf("Mix dry: %v", err)
	}
	params.SidechainDuck = true
	ducked, err := m.Mix(context.Background(), stemSet(10), stemSet(10), planFixture(model.RecipeAVocalsBInstrumental), params)
	if err != nil {
		t.Fatalf("Mix ducked: %v", err)
	}
	if ducked.RMS() >= dry.RMS() {
		t.Errorf("ducked RMS %.4f not below dry RMS %.4f", ducked.RMS(), dry.RMS())
	}
}

func TestMasterMeetsTargets(t *testing.T) {
	buf := toneStem(440, 0.9, 12)
	hints, err := NewMasterer(MasterConfig{TargetLUFS: -14, HeadroomDB: 1}, nil).Master(context.Background(), buf)
	if err != nil {
		t.Fatalf("Master: %v", err)
	}

	ceiling := audio.DBToLinear(-1)
	if peak := buf.Peak(); peak > ceiling+1e-9 {
		t.Errorf("peak %.4f above -1 dBFS ceiling %.4f", peak, ceiling)
	}
	lufs := analysis.IntegratedLoudness(buf)
	if len(hints) == 0 && math.Abs(lufs-(-14)) > 0.5 {
		t.Errorf("loudness = %.2f LUFS, want -14 +/- 0.5", lufs)
	}
}

func TestMasterQuietInputGainsUp(t *testing.T) {
	buf := toneStem(440, 0.01, 12)
	before := analysis.IntegratedLoudness(buf)
	if _, err := NewMasterer(MasterConfig{}, nil).Master(context.Background(), buf); err != nil {
		t.Fatalf("Master: %v", err)
	}
	if after := analysis.IntegratedLoudness(buf); after <= before {
		t.Errorf("loudness did not increase: %.2f -> %.2f", before, after)
	}
}

func TestMasterHintWhenHeadroomWins(t *testing.T) {
	// A crest-heavy signal: mostly silence with one loud click cannot be
	// normalized up to -14 LUFS without breaking the ceiling.
	n := 12 * testSampleRate
	data := make([]float64, n)
	for i := 0; i < 100; i++ {
		data[i*testSampleRate/10] = 0.9
	}
	buf := audio.FromMono(data, testSampleRate)

	hints, err := NewMasterer(MasterConfig{}, nil).Master(context.Background(), buf)
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	if len(hints) == 0 {
		t.Error("expected a reduced-loudness hint for a crest-heavy signal")
	}
	if peak := buf.Peak(); peak > audio.DBToLinear(-1)+1e-9 {
		t.Errorf("peak %.4f exceeds ceiling", peak)
	}
}

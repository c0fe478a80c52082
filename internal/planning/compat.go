package planning

import (
	"math"

	"github.com/songmasher/api/internal/model"
)

// Score rates how well two analyzed tracks combine. Lower is better;
// zero means identical key, tempo, and structure shape.
func Score(a, b *model.TrackAnalysis) model.Compatibility {
	key := keyScore(a.Key, b.Key)
	tempo := tempoScore(a.BPM, b.BPM)
	structure := structureScore(a, b)
	return model.Compatibility{
		KeyScore:       key,
		TempoScore:     tempo,
		StructureScore: structure,
		OverallScore:   0.4*key + 0.4*tempo + 0.2*structure,
	}
}

// keyScore is the circular Camelot wheel distance plus one step when the
// modes differ, so a relative major/minor pair scores 1. Clamped to 6.
func keyScore(a, b model.Key) float64 {
	na := camelotNumber(a)
	nb := camelotNumber(b)
	d := abs(na - nb)
	if d > 6 {
		d = 12 - d
	}
	if a.Mode != b.Mode {
		d++
	}
	if d > 6 {
		d = 6
	}
	return float64(d)
}

func camelotNumber(k model.Key) int {
	code := k.CamelotCode()
	n := 0
	for _, c := range code[:len(code)-1] {
		n = n*10 + int(c-'0')
	}
	return n
}

// tempoScore folds the BPM ratio into one octave before scoring, so
// half/double-time relationships rate as close. The folded log ratio is
// at most 0.5, scaled into a 0-4 band.
func tempoScore(bpmA, bpmB float64) float64 {
	if bpmA <= 0 || bpmB <= 0 {
		return 4
	}
	lr := math.Log2(bpmA / bpmB)
	lr -= math.Round(lr)
	return math.Min(4, 8*math.Abs(lr))
}

// structureScore combines the normalized section-count difference with a
// penalty when chorus counts differ.
func structureScore(a, b *model.TrackAnalysis) float64 {
	na, nb := len(a.Sections), len(b.Sections)
	if na == 0 && nb == 0 {
		return 2
	}
	maxN := na
	if nb > maxN {
		maxN = nb
	}
	score := float64(abs(na-nb)) / float64(maxN)
	if a.ChorusCount() != b.ChorusCount() {
		score += 1
	}
	return math.Min(2, score)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

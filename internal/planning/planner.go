package planning

import (
	"math"

	"go.uber.org/zap"

	"github.com/songmasher/api/internal/model"
)

const (
	// Tempo ratios within this log2 bound take the instrumental track's
	// BPM directly instead of the geometric mean.
	tempoLockLog2Bound = 0.2

	stretchClampLow  = 0.85
	stretchClampHigh = 1.20

	hintPoorCompatibility = "poor overall compatibility"
	hintAudibleStretch    = "audible stretching expected"
	hintHeavyStretch      = "heavy stretching"
	hintUncertainPairs    = "uncertain section alignment"

	poorCompatThreshold = 2.5
	audibleStretchLow   = 0.95
	audibleStretchHigh  = 1.05
	uncertainConfidence = 0.4
)

// Planner derives an immutable MashupPlan from two analyses and a recipe.
// The same inputs always produce the same plan.
type Planner struct {
	log *zap.Logger
}

func NewPlanner(log *zap.Logger) *Planner {
	return &Planner{log: log}
}

func (p *Planner) Plan(a, b *model.TrackAnalysis, recipe model.Recipe) (*model.MashupPlan, error) {
	if a.BPM <= 0 || b.BPM <= 0 || a.DurationSeconds <= 0 || b.DurationSeconds <= 0 {
		return nil, &Error{Kind: KindIncompatibleInputs, Msg: "both tracks need a positive tempo and duration"}
	}
	if len(a.Sections) == 0 || len(b.Sections) == 0 {
		return nil, &Error{Kind: KindInsufficientStructure, Msg: "at least one section per track is required"}
	}

	compat := Score(a, b)
	primaryIsA := recipe.VocalTrack() == "A"

	targetKey, shiftA, shiftB := chooseTargetKey(a.Key, b.Key, primaryIsA)
	targetBPM := chooseTargetBPM(a.BPM, b.BPM, primaryIsA)

	rawA := targetBPM / a.BPM
	rawB := targetBPM / b.BPM
	stretch := model.StretchRatio{
		A: clampStretch(rawA),
		B: clampStretch(rawB),
	}

	pairs := alignSections(a, b)
	if len(pairs) == 0 {
		return nil, &Error{Kind: KindInsufficientStructure, Msg: "no section pairing survives alignment"}
	}

	plan := &model.MashupPlan{
		TargetKey:         targetKey,
		KeyShiftSemitones: model.KeyShift{A: shiftA, B: shiftB},
		TargetBPM:         targetBPM,
		StretchRatio:      stretch,
		SectionPairs:      pairs,
		Recipe:            recipe,
		Compatibility:     compat,
	}
	plan.QualityHints = qualityHints(plan, rawA, rawB)
	if p.log != nil {
		p.log.Debug("plan derived",
			zap.String("recipe", string(recipe)),
			zap.Float64("targetBpm", targetBPM),
			zap.String("targetKey", targetKey.String()),
			zap.Int("pairs", len(pairs)),
			zap.Float64("overall", compat.OverallScore),
		)
	}
	return plan, nil
}

// chooseTargetKey evaluates both input keys as the candidate target and
// picks the one minimizing |shiftA| + |shiftB|. Ties go to the candidate
// that leaves the vocal track unshifted.
func chooseTargetKey(keyA, keyB model.Key, primaryIsA bool) (model.Key, int, int) {
	shiftToA := signedSemitoneDistance(keyB.PitchClass, keyA.PitchClass)
	shiftToB := signedSemitoneDistance(keyA.PitchClass, keyB.PitchClass)

	totalA := abs(shiftToA) // candidate keyA: A shifts 0, B shifts shiftToA
	totalB := abs(shiftToB) // candidate keyB: A shifts shiftToB, B shifts 0

	pickA := totalA < totalB
	if totalA == totalB {
		pickA = primaryIsA
	}
	if pickA {
		return keyA, 0, shiftToA
	}
	return keyB, shiftToB, 0
}

// signedSemitoneDistance is the shorter way around the 12-semitone
// circle from one pitch class to another, in [-6, 6].
func signedSemitoneDistance(from, to int) int {
	d := ((to-from)%12 + 12) % 12
	if d > 6 {
		d -= 12
	}
	return d
}

// chooseTargetBPM takes the instrumental track's tempo when the two are
// close enough, otherwise the geometric mean.
func chooseTargetBPM(bpmA, bpmB float64, primaryIsA bool) float64 {
	instrumental := bpmB
	if !primaryIsA {
		instrumental = bpmA
	}
	if math.Abs(math.Log2(bpmA/bpmB)) <= tempoLockLog2Bound {
		return instrumental
	}
	return math.Sqrt(bpmA * bpmB)
}

func clampStretch(r float64) float64 {
	if r < stretchClampLow {
		return stretchClampLow
	}
	if r > stretchClampHigh {
		return stretchClampHigh
	}
	return r
}

func qualityHints(plan *model.MashupPlan, rawA, rawB float64) []string {
	var hints []string
	if plan.Compatibility.OverallScore > poorCompatThreshold {
		hints = append(hints, hintPoorCompatibility)
	}
	if rawA < stretchClampLow || rawA > stretchClampHigh || rawB < stretchClampLow || rawB > stretchClampHigh {
		hints = append(hints, hintHeavyStretch)
	}
	outside := func(r float64) bool { return r < audibleStretchLow || r > audibleStretchHigh }
	if outside(plan.StretchRatio.A) || outside(plan.StretchRatio.B) {
		hints = append(hints, hintAudibleStretch)
	}
	for _, pair := range plan.SectionPairs {
		if pair.Confidence < uncertainConfidence {
			hints = append(hints, hintUncertainPairs)
			break
		}
	}
	return hints
}

package model

// Key modes
type Mode string

const (
	ModeMajor Mode = "major"
	ModeMinor Mode = "minor"
)

// Section labels form a closed set; the structure labeler never emits
// anything outside it.
type SectionLabel string

const (
	SectionIntro  SectionLabel = "intro"
	SectionVerse  SectionLabel = "verse"
	SectionChorus SectionLabel = "chorus"
	SectionBridge SectionLabel = "bridge"
	SectionOutro  SectionLabel = "outro"
	SectionOther  SectionLabel = "other"
)

var ValidSectionLabels = []SectionLabel{
	SectionIntro, SectionVerse, SectionChorus,
	SectionBridge, SectionOutro, SectionOther,
}

// Recipes select which stems from which track populate the mashup
type Recipe string

const (
	RecipeAVocalsBInstrumental Recipe = "AVocalsBInstrumental"
	RecipeBVocalsAInstrumental Recipe = "BVocalsAInstrumental"
	RecipeHybridDrums          Recipe = "HybridDrums"
)

var ValidRecipes = []Recipe{
	RecipeAVocalsBInstrumental, RecipeBVocalsAInstrumental, RecipeHybridDrums,
}

// VocalTrack returns which track ("A" or "B") provides the vocal stem.
func (r Recipe) VocalTrack() string {
	if r == RecipeBVocalsAInstrumental {
		return "B"
	}
	return "A"
}

// Stem roles produced by the separation model
type StemRole string

const (
	StemVocals StemRole = "vocals"
	StemDrums  StemRole = "drums"
	StemBass   StemRole = "bass"
	StemOther  StemRole = "other"
)

var AllStemRoles = []StemRole{StemVocals, StemDrums, StemBass, StemOther}

// Render job stages. Transitions are strictly forward; failed is reachable
// from any non-terminal stage.
type JobStage string

const (
	StageQueued       JobStage = "queued"
	StageSeparating   JobStage = "separating"
	StageTransforming JobStage = "transforming"
	StageMixing       JobStage = "mixing"
	StageMastering    JobStage = "mastering"
	StageCompleted    JobStage = "completed"
	StageFailed       JobStage = "failed"
)

var stageOrder = map[JobStage]int{
	StageQueued:       0,
	StageSeparating:   1,
	StageTransforming: 2,
	StageMixing:       3,
	StageMastering:    4,
	StageCompleted:    5,
	StageFailed:       5,
}

// CanTransition reports whether moving from s to next respects the
// monotonic stage order.
func (s JobStage) CanTransition(next JobStage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	return stageOrder[next] > stageOrder[s]
}

// Terminal reports whether the stage is an end state.
func (s JobStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Crossfade curve shapes
type CrossfadeCurve string

const (
	CurveEqualPower CrossfadeCurve = "equal_power"
	CurveLinear     CrossfadeCurve = "linear"
)

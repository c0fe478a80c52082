package model

// Compatibility scores two tracks on key, tempo, and structure.
// Lower is better; 0 means perfect compatibility.
type Compatibility struct {
	KeyScore       float64 `json:"keyScore"`
	TempoScore     float64 `json:"tempoScore"`
	StructureScore float64 `json:"structureScore"`
	OverallScore   float64 `json:"overallScore"`
}

// KeyShift holds per-track pitch shifts in semitones, each in [-6, 6].
type KeyShift struct {
	A int `json:"a"`
	B int `json:"b"`
}

// StretchRatio holds per-track tempo stretch ratios
// (targetBpm / sourceBpm).
type StretchRatio struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// SectionPair aligns one section of track A with one of track B.
// Indices along a plan's SectionPairs are strictly increasing in both
// tracks (no crossing pairs).
type SectionPair struct {
	IndexA                 int     `json:"indexA"`
	IndexB                 int     `json:"indexB"`
	SectionA               Section `json:"sectionA"`
	SectionB               Section `json:"sectionB"`
	AlignmentOffsetSeconds float64 `json:"alignmentOffsetSeconds"`
	Confidence             float64 `json:"confidence"`
}

// MashupPlan is the immutable cross-track alignment plan. It is derivable
// deterministically from the two analyses plus the recipe.
type MashupPlan struct {
	TargetKey         Key           `json:"targetKey"`
	KeyShiftSemitones KeyShift      `json:"keyShiftSemitones"`
	TargetBPM         float64       `json:"targetBpm"`
	StretchRatio      StretchRatio  `json:"stretchRatio"`
	SectionPairs      []SectionPair `json:"sectionPairs"`
	Recipe            Recipe        `json:"recipe"`
	Compatibility     Compatibility `json:"compatibility"`
	QualityHints      []string      `json:"qualityHints"`
}

// MixParameters control the mix & master stage. Gains are linear.
type MixParameters struct {
	VocalsGain      float64        `json:"vocalsGain"`
	DrumsGain       float64        `json:"drumsGain"`
	BassGain        float64        `json:"bassGain"`
	OtherGain       float64        `json:"otherGain"`
	CrossfadeLength float64        `json:"crossfadeLength"`
	CrossfadeCurve  CrossfadeCurve `json:"crossfadeCurve"`
	AutoEQ          bool           `json:"autoEq"`
	SidechainDuck   bool           `json:"sidechainDucking"`
	DeEsser         bool           `json:"deEsser"`
}

// DefaultMixParameters mirrors the stock per-stem balance: vocals on top,
// instrumental tucked under.
func DefaultMixParameters() MixParameters {
	return MixParameters{
		VocalsGain:      1.0,
		DrumsGain:       0.8,
		BassGain:        0.7,
		OtherGain:       0.6,
		CrossfadeLength: 1.0,
		CrossfadeCurve:  CurveEqualPower,
		AutoEQ:          true,
		SidechainDuck:   true,
		DeEsser:         true,
	}
}

// StemRefs points at the four separated stem objects of one track.
type StemRefs struct {
	Vocals string `json:"vocals"`
	Drums  string `json:"drums"`
	Bass   string `json:"bass"`
	Other  string `json:"other"`
}

// Ref returns the storage ref for a role.
func (s StemRefs) Ref(role StemRole) string {
	switch role {
	case StemVocals:
		return s.Vocals
	case StemDrums:
		return s.Drums
	case StemBass:
		return s.Bass
	default:
		return s.Other
	}
}

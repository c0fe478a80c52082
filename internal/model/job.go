package model

import "time"

// ResultRefs points at the two render artifacts. Both are set together or
// not at all.
type ResultRefs struct {
	MashupAudioRef string `json:"mashupAudioRef"`
	ProjectFileRef string `json:"projectFileRef"`
}

// RenderJob is the mutable record of one render. Only the orchestrator
// writes to it; everyone else reads through the job store.
type RenderJob struct {
	ID          string      `json:"id"`
	Stage       JobStage    `json:"stage"`
	Progress    float64     `json:"progress"`
	ResultRefs  *ResultRefs `json:"resultRefs,omitempty"`
	ErrorDetail *string     `json:"errorDetail,omitempty"`
	Canceled    bool        `json:"canceled"`
	CreatedAt   time.Time   `json:"createdAt"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// RenderJobPayload is what the queue carries for one render.
type RenderJobPayload struct {
	TrackARef     string        `json:"trackARef"`
	TrackBRef     string        `json:"trackBRef"`
	AnalysisA     TrackAnalysis `json:"analysisA"`
	AnalysisB     TrackAnalysis `json:"analysisB"`
	Plan          MashupPlan    `json:"plan"`
	MixParameters MixParameters `json:"mixParameters"`
	StemsA        *StemRefs     `json:"stemsA,omitempty"`
	StemsB        *StemRefs     `json:"stemsB,omitempty"`
}

// ProjectFile serializes everything needed to reproduce the final mix
// bit-for-bit given the same engine and separation model versions.
type ProjectFile struct {
	TrackAReference     string        `json:"trackAReference"`
	TrackBReference     string        `json:"trackBReference"`
	AnalysisA           TrackAnalysis `json:"analysisA"`
	AnalysisB           TrackAnalysis `json:"analysisB"`
	Plan                MashupPlan    `json:"plan"`
	MixParameters       MixParameters `json:"mixParameters"`
	RenderEngineVersion string        `json:"renderEngineVersion"`
	SeparationModel     string        `json:"separationModelVersion"`
}

package model

import "time"

// AnalyzeResponse wraps an analysis together with the stored track ref so
// later plan/render calls can point back at the uploaded audio.
type AnalyzeResponse struct {
	TrackRef string        `json:"trackRef"`
	Analysis TrackAnalysis `json:"analysis"`
}

// PlanRequest asks for a mashup plan for two analyzed tracks.
type PlanRequest struct {
	TrackA TrackAnalysis `json:"trackA" validate:"required"`
	TrackB TrackAnalysis `json:"trackB" validate:"required"`
	Recipe Recipe        `json:"recipe" validate:"required,oneof=AVocalsBInstrumental BVocalsAInstrumental HybridDrums"`
}

// RenderStartRequest submits a render job. Stem refs are optional; when
// absent the job runs separation itself.
type RenderStartRequest struct {
	TrackARef     string         `json:"trackARef" validate:"required"`
	TrackBRef     string         `json:"trackBRef" validate:"required"`
	AnalysisA     TrackAnalysis  `json:"analysisA" validate:"required"`
	AnalysisB     TrackAnalysis  `json:"analysisB" validate:"required"`
	Plan          MashupPlan     `json:"plan" validate:"required"`
	MixParameters *MixParameters `json:"mixParameters"`
	StemsA        *StemRefs      `json:"stemsA"`
	StemsB        *StemRefs      `json:"stemsB"`
}

// RenderStartResponse acknowledges a queued render.
type RenderStartResponse struct {
	JobID     string    `json:"jobId"`
	Stage     JobStage  `json:"stage"`
	CreatedAt time.Time `json:"createdAt"`
}

// RenderCancelResponse acknowledges a cancel request.
type RenderCancelResponse struct {
	JobID string   `json:"jobId"`
	Stage JobStage `json:"stage"`
}

// DownloadResponse returns the artifact refs plus signed URLs when the
// storage backend can mint them.
type DownloadResponse struct {
	MashupRef  string `json:"mashupRef"`
	ProjectRef string `json:"projectRef"`
	MashupURL  string `json:"mashupUrl,omitempty"`
	ProjectURL string `json:"projectUrl,omitempty"`
}

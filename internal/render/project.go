package render

import (
	"encoding/json"
	"fmt"

	"github.com/songmasher/api/internal/model"
)

// EngineVersion identifies the render pipeline. A ProjectFile re-rendered
// with the same engine and separation model versions reproduces the same
// bytes.
const EngineVersion = "1.0.0"

// BuildProjectFile assembles the determinism record for a finished render.
func BuildProjectFile(payload *model.RenderJobPayload, separationModel string) *model.ProjectFile {
	return &model.ProjectFile{
		TrackAReference:     payload.TrackARef,
		TrackBReference:     payload.TrackBRef,
		AnalysisA:           payload.AnalysisA,
		AnalysisB:           payload.AnalysisB,
		Plan:                payload.Plan,
		MixParameters:       payload.MixParameters,
		RenderEngineVersion: EngineVersion,
		SeparationModel:     separationModel,
	}
}

// EncodeProjectFile serializes the record with stable key ordering.
func EncodeProjectFile(pf *model.ProjectFile) ([]byte, error) {
	data, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: encoding project file: %w", err)
	}
	return data, nil
}

// DecodeProjectFile parses a stored record.
func DecodeProjectFile(data []byte) (*model.ProjectFile, error) {
	var pf model.ProjectFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("render: decoding project file: %w", err)
	}
	return &pf, nil
}

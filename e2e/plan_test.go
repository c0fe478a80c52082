package e2e

import (
	"net/http"
	"testing"

	"github.com/songmasher/api/internal/model"
)

func TestPlanEndpoint(t *testing.T) {
	ta := setupApp(t)

	req := model.PlanRequest{
		TrackA: analysisFixture(120, model.Key{PitchClass: 0, Mode: model.ModeMajor}),
		TrackB: analysisFixture(140, model.Key{PitchClass: 7, Mode: model.ModeMajor}),
		Recipe: model.RecipeAVocalsBInstrumental,
	}
	resp := doJSON(t, ta.app, http.MethodPost, "/api/plan", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	body := parseJSON(t, resp)
	if _, ok := body["targetBpm"]; !ok {
		t.Error("missing targetBpm")
	}
	if _, ok := body["sectionPairs"]; !ok {
		t.Error("missing sectionPairs")
	}
	compat, ok := body["compatibility"].(map[string]interface{})
	if !ok {
		t.Fatal("missing compatibility")
	}
	if _, ok := compat["overallScore"]; !ok {
		t.Error("missing overallScore")
	}
}

func TestPlanEndpointRejectsUnknownRecipe(t *testing.T) {
	ta := setupApp(t)

	req := map[string]interface{}{
		"trackA": analysisFixture(120, model.Key{PitchClass: 0, Mode: model.ModeMajor}),
		"trackB": analysisFixture(140, model.Key{PitchClass: 7, Mode: model.ModeMajor}),
		"recipe": "SoloAcapella",
	}
	resp := doJSON(t, ta.app, http.MethodPost, "/api/plan", req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPlanEndpointInsufficientStructure(t *testing.T) {
	ta := setupApp(t)

	trackB := analysisFixture(140, model.Key{PitchClass: 7, Mode: model.ModeMajor})
	trackB.Sections = nil
	req := model.PlanRequest{
		TrackA: analysisFixture(120, model.Key{PitchClass: 0, Mode: model.ModeMajor}),
		TrackB: trackB,
		Recipe: model.RecipeHybridDrums,
	}
	resp := doJSON(t, ta.app, http.MethodPost, "/api/plan", req)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ta := setupApp(t)

	resp := doJSON(t, ta.app, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := parseJSON(t, resp)
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
}

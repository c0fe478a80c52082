package e2e

import (
	"net/http"
	"testing"
)

func TestAnalyzeEndpoint(t *testing.T) {
	ta := setupApp(t)

	resp := uploadFile(t, ta.app, "/api/analyze", clickTrackWAV(t, 120, 30))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	body := parseJSON(t, resp)
	if body["trackRef"] == "" {
		t.Error("missing trackRef")
	}
	a, ok := body["analysis"].(map[string]interface{})
	if !ok {
		t.Fatal("missing analysis")
	}
	bpm, _ := a["bpm"].(float64)
	if bpm < 110 || bpm > 130 {
		t.Errorf("bpm = %v, want ~120", a["bpm"])
	}
	if _, ok := a["sections"]; !ok {
		t.Error("missing sections")
	}
}

func TestAnalyzeEndpointRejectsShortUpload(t *testing.T) {
	ta := setupApp(t)

	resp := uploadFile(t, ta.app, "/api/analyze", clickTrackWAV(t, 120, 3))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestAnalyzeEndpointRejectsGarbage(t *testing.T) {
	ta := setupApp(t)

	resp := uploadFile(t, ta.app, "/api/analyze", []byte("not a wav file"))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestAnalyzeEndpointRequiresFile(t *testing.T) {
	ta := setupApp(t)

	resp := doJSON(t, ta.app, http.MethodPost, "/api/analyze", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

package separation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/songmasher/api/internal/config"
)

func TestSeparateParsesStems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/separate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req separateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "htdemucs_v4" {
			t.Errorf("model = %s", req.Model)
		}
		json.NewEncoder(w).Encode(separateResponse{
			Vocals: "stems/t1/vocals.wav",
			Drums:  "stems/t1/drums.wav",
			Bass:   "stems/t1/bass.wav",
			Other:  "stems/t1/other.wav",
		})
	}))
	defer srv.Close()

	c := NewClient(&config.SeparationConfig{ServiceURL: srv.URL, Model: "htdemucs_v4", Timeout: 5})
	stems, err := c.Separate(context.Background(), "tracks/t1.wav")
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	if stems.Vocals != "stems/t1/vocals.wav" || stems.Other != "stems/t1/other.wav" {
		t.Errorf("stems = %+v", stems)
	}
}

func TestSeparateIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(separateResponse{Vocals: "only-vocals"})
	}))
	defer srv.Close()

	c := NewClient(&config.SeparationConfig{ServiceURL: srv.URL, Model: "htdemucs_v4", Timeout: 5})
	if _, err := c.Separate(context.Background(), "tracks/t1.wav"); err == nil {
		t.Fatal("expected error for incomplete stem set")
	}
}

func TestSeparateServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(&config.SeparationConfig{ServiceURL: srv.URL, Model: "htdemucs_v4", Timeout: 5})
	if _, err := c.Separate(context.Background(), "tracks/t1.wav"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

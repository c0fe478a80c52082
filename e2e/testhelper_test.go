package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/songmasher/api/internal/analysis"
	"github.com/songmasher/api/internal/audio"
	"github.com/songmasher/api/internal/handler"
	"github.com/songmasher/api/internal/middleware"
	"github.com/songmasher/api/internal/model"
	"github.com/songmasher/api/internal/planning"
	"github.com/songmasher/api/internal/service"
	"github.com/songmasher/api/internal/storage"
)

const testSampleRate = 44100

type testApp struct {
	app *fiber.App
}

// setupApp wires the analyze and plan surfaces against local storage.
// Queue-backed render routes need redis and are covered by package-level
// tests instead.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	zlog := zap.NewNop()
	validate := validator.New()

	analyzer := analysis.NewAnalyzer(analysis.Config{}, zlog)
	analysisService := service.NewAnalysisService(analyzer, store, zlog)
	planService := service.NewPlanService(planning.NewPlanner(zlog), zlog)

	analysisHandler := handler.NewAnalysisHandler(analysisService)
	planHandler := handler.NewPlanHandler(planService, validate)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	authMiddleware := middleware.NewAuthMiddleware("") // auth disabled
	api := app.Group("/api", authMiddleware.Authenticate())
	api.Post("/analyze", analysisHandler.Analyze)
	api.Post("/plan", planHandler.Plan)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return &testApp{app: app}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 60_000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

// clickTrackWAV synthesizes a WAV with a steady click pattern so the
// analyzer finds a tempo.
func clickTrackWAV(t *testing.T, bpm float64, seconds float64) []byte {
	t.Helper()
	n := int(seconds * testSampleRate)
	data := make([]float64, n)
	interval := int(60.0 / bpm * testSampleRate)
	for start := 0; start < n; start += interval {
		for i := 0; i < 400 && start+i < n; i++ {
			data[start+i] = 0.8 * math.Exp(-float64(i)/80.0) * math.Sin(2*math.Pi*1000*float64(i)/testSampleRate)
		}
	}
	wav, err := audio.EncodeWAV(audio.FromMono(data, testSampleRate))
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	return wav
}

func uploadFile(t *testing.T, app *fiber.App, path string, contents []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "track.wav")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(contents); err != nil {
		t.Fatalf("write form: %v", err)
	}
	w.Close()

	req, err := http.NewRequest(http.MethodPost, path, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, 120_000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func analysisFixture(bpm float64, key model.Key) model.TrackAnalysis {
	sections := []model.Section{
		{Start: 0, End: 10, Label: model.SectionIntro},
		{Start: 10, End: 40, Label: model.SectionVerse},
		{Start: 40, End: 70, Label: model.SectionChorus},
	}
	var beats, downbeats []float64
	for ts := 0.0; ts < 70; ts += 60.0 / bpm {
		beats = append(beats, ts)
		if len(beats)%4 == 1 {
			downbeats = append(downbeats, ts)
		}
	}
	return model.TrackAnalysis{
		DurationSeconds:        70,
		SampleRate:             testSampleRate,
		BPM:                    bpm,
		BeatTimes:              beats,
		DownbeatTimes:          downbeats,
		Key:                    key,
		CamelotCode:            key.CamelotCode(),
		Sections:               sections,
		IntegratedLoudnessLUFS: -11,
		Confidence:             0.8,
	}
}

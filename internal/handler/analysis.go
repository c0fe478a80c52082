package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/songmasher/api/internal/analysis"
	"github.com/songmasher/api/internal/service"
	"github.com/songmasher/api/pkg/response"
)

const maxUploadSize = 100 * 1024 * 1024 // 100MB

// AnalysisHandler serves track uploads and feature extraction.
type AnalysisHandler struct {
	service *service.AnalysisService
}

func NewAnalysisHandler(svc *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: svc}
}

// Analyze handles POST /api/analyze: a multipart WAV upload, returning
// the stored track ref plus its full analysis.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "file is required", nil)
	}
	if file.Size > maxUploadSize {
		return response.ValidationError(c, "file exceeds 100MB limit", map[string]interface{}{
			"maxSize":  maxUploadSize,
			"fileSize": file.Size,
		})
	}
	contentType := file.Header.Get("Content-Type")
	switch contentType {
	// octet-stream is accepted; the WAV decoder rejects non-RIFF bytes.
	case "audio/wav", "audio/x-wav", "audio/wave", "application/octet-stream", "":
	default:
		return response.ValidationError(c, "only WAV uploads are supported", map[string]interface{}{
			"contentType": contentType,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "opening upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return response.ServiceError(c, "reading upload")
	}

	result, err := h.service.AnalyzeUpload(c.Context(), data)
	if err != nil {
		var aerr *analysis.Error
		if errors.As(err, &aerr) {
			return response.UnprocessableEntity(c, response.CodeAnalysisError, aerr.Error())
		}
		return response.ServiceError(c, "analysis failed")
	}
	return response.OK(c, result)
}

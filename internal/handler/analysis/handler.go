package analysis

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lexhq/lex-backend/internal/identity"
	"github.com/lexhq/lex-backend/internal/middleware"
	analysisService "github.com/lexhq/lex-backend/internal/service/analysis"
	"github.com/lexhq/lex-backend/internal/service/extract"
	"github.com/lexhq/lex-backend/internal/service/orchestrator"
	"github.com/lexhq/lex-backend/internal/service/retrieval"
	"github.com/lexhq/lex-backend/pkg/utils"
)

// maxUploadBytes caps PDF uploads.
const maxUploadBytes = 20 << 20

// Handler serves the document-analysis endpoints.
type Handler struct {
	orch *orchestrator.Service
}

// New creates the analysis handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes registers the analysis routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
	r.Get("/analyze/last", h.handleLastAnalysis)
}

// handleAnalyze accepts either a multipart PDF upload (field "document") or a
// JSON body {"text": "..."} and returns the structured analysis.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	input, status, msg := parseAnalyzeRequest(r)
	if status != 0 {
		utils.RespondError(w, status, msg)
		return
	}

	result, err := h.orch.Analyze(r.Context(), userID, input)
	if err != nil {
		respondAnalysisError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

// handleLastAnalysis returns the user's cached document and analysis.
func (h *Handler) handleLastAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	sess, err := h.orch.History(r.Context(), userID)
	if err != nil {
		log.Printf("[analyze] fetching last analysis for user=%s: %v", userID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch previous analysis")
		return
	}
	if sess.AnalysisResult == nil {
		utils.RespondJSON(w, http.StatusNotFound, map[string]string{"message": "no cached analysis found"})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"document_text":   sess.DocumentText,
		"analysis_result": sess.AnalysisResult,
		"timestamp":       sess.Timestamp,
	})
}

// parseAnalyzeRequest extracts the orchestrator input from either accepted
// content type. A non-zero status signals a request error.
func parseAnalyzeRequest(r *http.Request) (orchestrator.Input, int, string) {
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		file, header, err := r.FormFile("document")
		if err != nil {
			return orchestrator.Input{}, http.StatusBadRequest, "no file selected"
		}
		defer file.Close()

		if header.Filename == "" {
			return orchestrator.Input{}, http.StatusBadRequest, "no file selected"
		}
		if ct := header.Header.Get("Content-Type"); ct != "application/pdf" {
			return orchestrator.Input{}, http.StatusBadRequest, "invalid file type, upload a PDF"
		}

		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			return orchestrator.Input{}, http.StatusBadRequest, "failed to read uploaded file"
		}
		if len(data) > maxUploadBytes {
			return orchestrator.Input{}, http.StatusRequestEntityTooLarge, "uploaded file is too large"
		}
		return orchestrator.Input{PDF: data}, 0, ""

	case strings.HasPrefix(contentType, "application/json"):
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return orchestrator.Input{}, http.StatusBadRequest, "invalid request body"
		}
		if strings.TrimSpace(payload.Text) == "" {
			return orchestrator.Input{}, http.StatusUnprocessableEntity, "text must be a non-empty string"
		}
		return orchestrator.Input{Text: payload.Text}, 0, ""
	}

	return orchestrator.Input{}, http.StatusBadRequest, "no document text or PDF file provided"
}

// respondAnalysisError maps the error taxonomy to HTTP statuses. Unexpected
// errors are logged in full and surfaced as a generic server error.
func respondAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrUserNotFound):
		utils.RespondError(w, http.StatusBadRequest, "user not found")
	case errors.Is(err, extract.ErrPasswordProtected):
		utils.RespondError(w, http.StatusBadRequest, extract.ErrPasswordProtected.Error())
	case errors.Is(err, extract.ErrUnreadable):
		utils.RespondError(w, http.StatusBadRequest, extract.ErrUnreadable.Error())
	case errors.Is(err, retrieval.ErrUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "context retrieval is unavailable")
	case errors.Is(err, analysisService.ErrUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "analysis is unavailable")
	case errors.Is(err, analysisService.ErrGenerationFailed):
		utils.RespondError(w, http.StatusBadGateway, "analysis generation failed, please retry")
	default:
		log.Printf("[analyze] unexpected error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "an internal error occurred during analysis")
	}
}

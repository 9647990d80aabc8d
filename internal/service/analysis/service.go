package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	analysismodel "github.com/lexhq/lex-backend/internal/model/analysis"
	retrievalmodel "github.com/lexhq/lex-backend/internal/model/retrieval"
)

var (
	// ErrUnavailable means the analyzer model is not configured.
	ErrUnavailable = errors.New("analyzer model not configured")

	// ErrGenerationFailed wraps an upstream model error. The core never
	// retries; the caller may resubmit.
	ErrGenerationFailed = errors.New("analyzer generation failed")
)

// Governor gates access to the metered analyzer quota. Acquire blocks until
// one governed call may be issued.
type Governor interface {
	Acquire(ctx context.Context) error
}

// Service produces the structured risk analysis of a document using the
// high-accuracy hosted model. Every model call passes through the governor
// first; this is the single place quota is enforced.
type Service struct {
	chatModel model.BaseChatModel
	governor  Governor
}

// NewService wires the analyzer. chatModel may be nil when the hosted model
// is unconfigured; Analyze then fails with ErrUnavailable.
func NewService(chatModel model.BaseChatModel, governor Governor) *Service {
	return &Service{chatModel: chatModel, governor: governor}
}

// Analyze sends the document plus retrieved context to the analyzer model and
// decodes the response. A response that fails to decode is returned as a
// degraded result, never as an error: the governed call has already been
// spent and the user still gets a summary.
func (s *Service) Analyze(ctx context.Context, documentText string, passages []retrievalmodel.Passage) (analysismodel.Result, error) {
	if s == nil || s.chatModel == nil {
		return analysismodel.Result{}, ErrUnavailable
	}

	if err := s.governor.Acquire(ctx); err != nil {
		return analysismodel.Result{}, fmt.Errorf("waiting for analyzer slot: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(analysisSystemPrompt),
		schema.UserMessage(buildAnalysisPrompt(passages, documentText)),
	}

	response, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return analysismodel.Result{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	result := ParseResult(response.Content)
	if result.IsDegraded() {
		log.Printf("[analyze] analyzer output failed to decode, returning degraded result (%d raw chars)", len(response.Content))
	}
	return result, nil
}

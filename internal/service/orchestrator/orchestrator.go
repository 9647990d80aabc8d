package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/lexhq/lex-backend/internal/identity"
	analysismodel "github.com/lexhq/lex-backend/internal/model/analysis"
	retrievalmodel "github.com/lexhq/lex-backend/internal/model/retrieval"
	"github.com/lexhq/lex-backend/internal/model/session"
	"github.com/lexhq/lex-backend/internal/service/sessioncache"
)

// ErrInvalidInput covers bad or missing documents and malformed chat
// requests. It maps to a client error and never mutates the cache.
var ErrInvalidInput = errors.New("invalid input")

// Extractor turns PDF bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, pdfBytes []byte) (string, error)
}

// Retriever fetches supporting context for a document.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]retrievalmodel.Passage, error)
}

// Analyzer produces the structured analysis. It owns quota enforcement.
type Analyzer interface {
	Analyze(ctx context.Context, documentText string, passages []retrievalmodel.Passage) (analysismodel.Result, error)
}

// Chatter answers follow-up questions grounded in a cached analysis.
type Chatter interface {
	Reply(ctx context.Context, history []session.ChatTurn, grounding string) (string, error)
}

// Service composes extraction, retrieval, generation and the session cache
// into the analyze and chat flows.
type Service struct {
	extractor Extractor
	retriever Retriever
	analyzer  Analyzer
	chatter   Chatter
	sessions  sessioncache.Store
	directory identity.Directory
}

// New wires the orchestrator.
func New(extractor Extractor, retriever Retriever, analyzer Analyzer, chatter Chatter, sessions sessioncache.Store, directory identity.Directory) *Service {
	return &Service{
		extractor: extractor,
		retriever: retriever,
		analyzer:  analyzer,
		chatter:   chatter,
		sessions:  sessions,
		directory: directory,
	}
}

// Input is the analyze request payload: either raw PDF bytes or pasted text.
type Input struct {
	Text string
	PDF  []byte
}

// Analyze runs the full document-analysis flow. A repeated submission of the
// byte-identical document returns the cached result without touching the
// retrieval or generation path; any difference, including whitespace, forces
// a full re-analysis. Failures never mutate the cache.
func (s *Service) Analyze(ctx context.Context, userID string, in Input) (analysismodel.Result, error) {
	if _, err := s.directory.Resolve(ctx, userID); err != nil {
		return analysismodel.Result{}, err
	}

	documentText, err := s.parseInput(ctx, in)
	if err != nil {
		return analysismodel.Result{}, err
	}

	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return analysismodel.Result{}, err
	}

	if sess.AnalysisResult != nil && sess.DocumentText == documentText {
		log.Printf("[analyze] cache hit for user=%s", userID)
		return *sess.AnalysisResult, nil
	}

	passages, err := s.retriever.Retrieve(ctx, documentText)
	if err != nil {
		return analysismodel.Result{}, err
	}

	result, err := s.analyzer.Analyze(ctx, documentText, passages)
	if err != nil {
		return analysismodel.Result{}, err
	}

	sess.DocumentText = documentText
	sess.AnalysisID = uuid.NewString()
	sess.AnalysisResult = &result
	if err := s.sessions.Put(ctx, userID, sess); err != nil {
		return analysismodel.Result{}, err
	}

	log.Printf("[analyze] completed for user=%s analysis=%s degraded=%t", userID, sess.AnalysisID, result.IsDegraded())
	return result, nil
}

func (s *Service) parseInput(ctx context.Context, in Input) (string, error) {
	switch {
	case len(in.PDF) > 0:
		return s.extractor.Extract(ctx, in.PDF)
	case strings.TrimSpace(in.Text) != "":
		return in.Text, nil
	}
	return "", fmt.Errorf("%w: no document text or PDF file provided", ErrInvalidInput)
}

// Chat answers one follow-up turn. When a cached analysis exists, its JSON
// becomes the grounding context; otherwise the conversation proceeds
// ungrounded. The submitted history plus the model reply replaces the cached
// history.
func (s *Service) Chat(ctx context.Context, userID string, history []session.ChatTurn) (session.ChatTurn, error) {
	if err := validateHistory(history); err != nil {
		return session.ChatTurn{}, err
	}

	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return session.ChatTurn{}, err
	}

	var grounding string
	if sess.AnalysisResult != nil {
		payload, err := json.Marshal(sess.AnalysisResult)
		if err != nil {
			return session.ChatTurn{}, fmt.Errorf("encoding grounding context: %w", err)
		}
		grounding = string(payload)
	}

	reply, err := s.chatter.Reply(ctx, history, grounding)
	if err != nil {
		return session.ChatTurn{}, err
	}

	turn := session.ChatTurn{Role: session.RoleModel, Content: reply}
	sess.ChatHistory = append(append([]session.ChatTurn{}, history...), turn)
	if err := s.sessions.Put(ctx, userID, sess); err != nil {
		return session.ChatTurn{}, err
	}
	return turn, nil
}

// History returns the user's cached session for the history endpoints.
func (s *Service) History(ctx context.Context, userID string) (session.UserSession, error) {
	return s.sessions.Get(ctx, userID)
}

func validateHistory(history []session.ChatTurn) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: chat history is empty", ErrInvalidInput)
	}
	for i, turn := range history {
		if turn.Role != session.RoleUser && turn.Role != session.RoleModel {
			return fmt.Errorf("%w: turn %d has unknown role %q", ErrInvalidInput, i, turn.Role)
		}
	}
	return nil
}

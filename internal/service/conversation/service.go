package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lexhq/lex-backend/internal/model/session"
)

// ErrUnavailable means the local conversational model is not configured.
var ErrUnavailable = errors.New("conversation model not configured")

// Message is one turn in the request sent to the conversational model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator is the model client behind the conversation service.
type Generator interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Service answers follow-up questions about an analyzed document using the
// fast local model. This path is deliberately not governed: the chatter is a
// distinct, unmetered model and must never share the analyzer's quota gate.
type Service struct {
	generator Generator
}

// NewService wires the conversation generator.
func NewService(generator Generator) *Service {
	return &Service{generator: generator}
}

// Reply builds the message sequence (system instruction, optional grounding
// message, then the full history role-for-role with blank turns skipped) and
// invokes the model once.
func (s *Service) Reply(ctx context.Context, history []session.ChatTurn, grounding string) (string, error) {
	if s == nil || s.generator == nil {
		return "", ErrUnavailable
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: chatSystemPrompt})

	if strings.TrimSpace(grounding) != "" {
		messages = append(messages, Message{
			Role:    "user",
			Content: fmt.Sprintf("Here is the analysis of the document we are discussing: <analysis>%s</analysis>", grounding),
		})
	}

	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		switch turn.Role {
		case session.RoleUser:
			messages = append(messages, Message{Role: "user", Content: content})
		case session.RoleModel:
			messages = append(messages, Message{Role: "assistant", Content: content})
		}
	}

	reply, err := s.generator.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("conversation model: %w", err)
	}
	return reply, nil
}

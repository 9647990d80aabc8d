package session

import (
	"time"

	"github.com/lexhq/lex-backend/internal/model/analysis"
)

// SchemaVersion is bumped when the cached record shape changes so stale
// records can be recognized and discarded.
const SchemaVersion = 1

// Chat turn roles. Conversation order is append-only and significant.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatTurn is a single turn of the follow-up conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserSession is the per-user cache record: the last analyzed document, its
// analysis, and the running chat history. It is overwritten whole on every
// write and expires a fixed interval after the last write.
//
// The record is advisory, not a source of truth: concurrent requests for the
// same user race last-write-wins around the external store.
type UserSession struct {
	Version        int              `json:"v"`
	DocumentText   string           `json:"document_text,omitempty"`
	AnalysisID     string           `json:"analysis_id,omitempty"`
	AnalysisResult *analysis.Result `json:"analysis_result"`
	ChatHistory    []ChatTurn       `json:"chat_history"`
	Timestamp      time.Time        `json:"timestamp"`
}

// New returns the default session used when no record exists for a user.
func New() UserSession {
	return UserSession{
		Version:     SchemaVersion,
		ChatHistory: []ChatTurn{},
	}
}

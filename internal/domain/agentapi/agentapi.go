// Package agentapi defines the library-level contract an external
// transport (HTTP/SSE, CLI, …) drives the conversational agent through.
package agentapi

import (
	"context"

	"github.com/loomtale/engine/internal/domain/entity"
)

// GeneratedChapter summarizes a chapter produced during a turn.
type GeneratedChapter struct {
	ChapterNumber int
	Content       string
	WordCount     int
}

// ErrorEnvelope is the neutral failure shape returned to a caller on an
// unrecoverable error. Retryable mirrors the underlying error kind's
// retry policy.
type ErrorEnvelope struct {
	Kind      string
	Retryable bool
}

// ChatReply is the agent's reply payload for one turn.
type ChatReply struct {
	SessionID  string
	ReplyText  string
	Generated  *GeneratedChapter
	Report     *entity.ConsistencyReport
	Err        *ErrorEnvelope
}

// StreamEventType classifies one event of a streamed chat reply.
type StreamEventType string

const (
	StreamToken      StreamEventType = "token"
	StreamArtifact   StreamEventType = "artifact"
	StreamConsistency StreamEventType = "consistency"
	StreamDone       StreamEventType = "done"
	StreamError      StreamEventType = "error"
)

// StreamEvent is one increment of a streamed chat reply.
type StreamEvent struct {
	Type    StreamEventType
	Token   string
	Payload any
}

// Agent is the contract the conversational agent exposes to external
// transports.
type Agent interface {
	Chat(ctx context.Context, sessionID, message, projectID string) (*ChatReply, error)
	ChatStream(ctx context.Context, sessionID, message, projectID string) (<-chan StreamEvent, error)
	GenerateChapter(ctx context.Context, projectID string, chapterNumber int, mode entity.GenerationMode, constraints string) (*entity.GenerationRecord, error)
	ListGenerations(ctx context.Context, projectID string) ([]*entity.GenerationRecord, error)
}

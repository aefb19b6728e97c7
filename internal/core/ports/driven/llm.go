package driven

import (
	"context"

	"github.com/calder-labs/notari/internal/core/domain"
)

// LLMService submits chat completions to an upstream language-model
// endpoint. Implementations target OpenAI-compatible APIs (OpenRouter,
// OpenAI, local inference servers).
type LLMService interface {
	// Complete performs a non-streaming chat completion and returns
	// the single completion string.
	Complete(ctx context.Context, req ChatRequest) (string, error)

	// Stream performs a streaming chat completion. The returned
	// channel carries normalized answer events in upstream order and
	// is closed after the terminal or error event. Cancelling ctx
	// stops reading and closes the upstream connection.
	Stream(ctx context.Context, req ChatRequest) (<-chan domain.AnswerEvent, error)

	// Close releases resources.
	Close() error
}

// ChatRequest is one chat-completion call.
type ChatRequest struct {
	// Model is the upstream model identifier.
	Model string

	// APIKey is the bearer credential for this call. Resolution
	// (explicit vs stored per-user key) happens before the request
	// reaches the adapter.
	APIKey string

	// Messages is the conversation, in order.
	Messages []ChatMessage
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

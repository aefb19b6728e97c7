package driving

import (
	"context"

	"github.com/calder-labs/notari/internal/core/domain"
)

// Retriever fetches the passages most relevant to a question within a
// single document.
type Retriever interface {
	// Retrieve embeds the query and returns up to topK passage texts
	// in similarity order. An empty result is a valid outcome,
	// distinct from an infrastructure error.
	Retrieve(ctx context.Context, documentID, query string, topK int) ([]string, error)
}

// SynthesisRequest carries everything needed to synthesize one answer.
type SynthesisRequest struct {
	// Question is the user's natural-language question.
	Question string

	// Passages is the retrieved grounding context, in similarity
	// order.
	Passages []string

	// Model is the upstream model identifier.
	Model string

	// APIKey is the explicitly supplied credential, if any. Takes
	// precedence over the owner's stored key.
	APIKey string

	// Owner identifies the caller for stored-credential lookup.
	Owner string
}

// AnswerSynthesizer produces grounded answers from retrieved context.
type AnswerSynthesizer interface {
	// Stream returns a channel of normalized answer events. The
	// channel is closed after the terminal or error event.
	// Fails with domain.ErrNoCredential before any network call when
	// no usable API key can be resolved.
	Stream(ctx context.Context, req SynthesisRequest) (<-chan domain.AnswerEvent, error)

	// Answer performs the same synthesis without streaming and
	// returns the complete answer.
	Answer(ctx context.Context, req SynthesisRequest) (string, error)
}

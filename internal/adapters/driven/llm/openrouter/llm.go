// Package openrouter provides a chat-completion adapter for
// OpenRouter and other OpenAI-compatible endpoints, in streaming and
// non-streaming modes.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.LLMService = (*Service)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "meta-llama/llama-3.3-70b-instruct:free"

	// DefaultCompleteTimeout bounds non-streaming calls. Streaming
	// calls use no timeout: the connection is long-lived by design.
	DefaultCompleteTimeout = 120 * time.Second
)

// Config holds configuration for the chat-completion service.
type Config struct {
	// BaseURL is the API base URL (default: https://openrouter.ai/api/v1).
	BaseURL string

	// Model is the default model when a request names none.
	Model string

	// CompleteTimeout is the non-streaming request timeout.
	CompleteTimeout time.Duration
}

// Service submits chat completions to an OpenAI-compatible endpoint.
// The bearer credential travels per request, not per service: each
// caller may use their own stored key.
type Service struct {
	client       *http.Client // bounded timeout, non-streaming
	streamClient *http.Client // no timeout, long-lived streams
	baseURL      string
	model        string
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model    string              `json:"model"`
	Messages []chatCompletionMsg `json:"messages"`
	Stream   bool                `json:"stream"`
}

// chatCompletionMsg is the chat message wire format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the non-streaming response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// New creates a new chat-completion service.
func New(cfg Config) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.CompleteTimeout == 0 {
		cfg.CompleteTimeout = DefaultCompleteTimeout
	}

	return &Service{
		client:       &http.Client{Timeout: cfg.CompleteTimeout},
		streamClient: &http.Client{},
		baseURL:      cfg.BaseURL,
		model:        cfg.Model,
	}
}

// newRequest builds a /chat/completions POST for the given payload.
func (s *Service) newRequest(ctx context.Context, req driven.ChatRequest, stream bool) (*http.Request, error) {
	model := req.Model
	if model == "" {
		model = s.model
	}

	messages := make([]chatCompletionMsg, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = chatCompletionMsg{Role: msg.Role, Content: msg.Content}
	}

	body := chatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	return httpReq, nil
}

// Complete performs a non-streaming chat completion and returns the
// single completion string.
func (s *Service) Complete(ctx context.Context, req driven.ChatRequest) (string, error) {
	httpReq, err := s.newRequest(ctx, req, false)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamRejected, resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrUpstreamRejected, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", domain.ErrUpstreamRejected)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Close releases resources.
func (s *Service) Close() error {
	// HTTP clients don't need explicit cleanup
	return nil
}

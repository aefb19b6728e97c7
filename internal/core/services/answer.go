package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
	"github.com/calder-labs/notari/internal/core/ports/driving"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerSynthesizer = (*AnswerService)(nil)

// systemPrompt instructs the model to stay grounded in the retrieved
// passages.
const systemPrompt = "You are a helpful assistant. Answer the question using only the provided context. If the context does not contain the answer, say so."

// AnswerService synthesizes answers from retrieved passages through an
// upstream language model. Credentials resolve per request: an
// explicitly supplied key wins over the caller's stored key.
type AnswerService struct {
	llm         driven.LLMService
	apiKeyStore driven.APIKeyStore
	cipher      driven.KeyCipher
}

// NewAnswerService creates the answer synthesis service.
func NewAnswerService(llm driven.LLMService, apiKeyStore driven.APIKeyStore, cipher driven.KeyCipher) *AnswerService {
	return &AnswerService{
		llm:         llm,
		apiKeyStore: apiKeyStore,
		cipher:      cipher,
	}
}

// Stream synthesizes a streamed answer. Credential resolution happens
// before any network call: with no usable key the stream never starts
// and domain.ErrNoCredential is returned.
func (s *AnswerService) Stream(ctx context.Context, req driving.SynthesisRequest) (<-chan domain.AnswerEvent, error) {
	chatReq, err := s.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.llm.Stream(ctx, chatReq)
}

// Answer synthesizes a complete answer without streaming.
func (s *AnswerService) Answer(ctx context.Context, req driving.SynthesisRequest) (string, error) {
	chatReq, err := s.buildRequest(ctx, req)
	if err != nil {
		return "", err
	}
	return s.llm.Complete(ctx, chatReq)
}

// buildRequest resolves the credential and assembles the grounded
// prompt.
func (s *AnswerService) buildRequest(ctx context.Context, req driving.SynthesisRequest) (driven.ChatRequest, error) {
	key, err := s.resolveKey(ctx, req)
	if err != nil {
		return driven.ChatRequest{}, err
	}

	return driven.ChatRequest{
		Model:  req.Model,
		APIKey: key,
		Messages: []driven.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req.Question, req.Passages)},
		},
	}, nil
}

// resolveKey picks the API key for one request: explicit key first,
// then the owner's stored key, decrypted.
func (s *AnswerService) resolveKey(ctx context.Context, req driving.SynthesisRequest) (string, error) {
	if req.APIKey != "" {
		return req.APIKey, nil
	}

	stored, err := s.apiKeyStore.Get(ctx, req.Owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNoCredential
		}
		return "", fmt.Errorf("loading stored key: %w", err)
	}

	key, err := s.cipher.Decrypt(stored.Encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypting stored key: %w", err)
	}
	return key, nil
}

// userPrompt joins the retrieved passages into one context block
// followed by the question.
func userPrompt(question string, passages []string) string {
	return fmt.Sprintf("Context: %s\n\nQuestion: %s", strings.Join(passages, " "), question)
}

package services

import (
	"bytes"
	"context"
	"errors"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
)

// stubEmbedder is a deterministic in-memory embedding service. Texts
// with a configured vector get it; everything else gets unitVec.
type stubEmbedder struct {
	vectors  map[string][]float32
	embedErr error
	batchErr error
}

var unitVec = []float32{1, 0, 0}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return unitVec, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int              { return 3 }
func (s *stubEmbedder) ModelName() string            { return "stub" }
func (s *stubEmbedder) Ping(_ context.Context) error { return nil }
func (s *stubEmbedder) Close() error                 { return nil }

// stubLLM records the last request and plays back scripted output.
type stubLLM struct {
	lastReq driven.ChatRequest
	answer  string
	events  []domain.AnswerEvent
	err     error
}

var _ driven.LLMService = (*stubLLM)(nil)

func (s *stubLLM) Complete(_ context.Context, req driven.ChatRequest) (string, error) {
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubLLM) Stream(_ context.Context, req driven.ChatRequest) (<-chan domain.AnswerEvent, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan domain.AnswerEvent, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (s *stubLLM) Close() error { return nil }

// stubCipher seals by prefixing; good enough to observe that stored
// material is not the plaintext.
type stubCipher struct{}

var sealedPrefix = []byte("sealed:")

var _ driven.KeyCipher = (*stubCipher)(nil)

func (stubCipher) Encrypt(plaintext string) ([]byte, error) {
	return append(append([]byte{}, sealedPrefix...), plaintext...), nil
}

func (stubCipher) Decrypt(sealed []byte) (string, error) {
	if !bytes.HasPrefix(sealed, sealedPrefix) {
		return "", errors.New("not sealed")
	}
	return string(bytes.TrimPrefix(sealed, sealedPrefix)), nil
}

// stubIngestor records enqueued jobs and can reject them.
type stubIngestor struct {
	enqueued []string
	err      error
}

func (s *stubIngestor) Enqueue(documentID string, _ []byte) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, documentID)
	return nil
}

func (s *stubIngestor) Start(_ context.Context) error { return nil }
func (s *stubIngestor) Stop() error                   { return nil }

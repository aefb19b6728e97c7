package openrouter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
	"github.com/calder-labs/notari/internal/logger"
)

// SSE framing used by OpenAI-style streaming responses.
const (
	dataPrefix    = "data: "
	terminalToken = "[DONE]"
)

// maxLineSize bounds a single SSE line; some providers send whole
// message objects in one line.
const maxLineSize = 1 << 20

// Stream performs a streaming chat completion and normalizes the
// upstream server-sent events into answer events:
//
//   - one synthetic empty delta is emitted as soon as the upstream
//     accepts the call, so callers can show "generation started"
//     before the first real token arrives;
//   - each upstream content fragment becomes one delta event, in
//     upstream order and granularity;
//   - a non-2xx response becomes exactly one error event carrying the
//     status and body;
//   - the stream always ends with a terminal event, whether or not the
//     upstream sent its terminal token.
//
// The returned channel is closed once the stream is finished.
// Cancelling ctx stops reading and closes the upstream connection.
func (s *Service) Stream(ctx context.Context, req driven.ChatRequest) (<-chan domain.AnswerEvent, error) {
	httpReq, err := s.newRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.AnswerEvent)
	go s.consume(ctx, httpReq, events)
	return events, nil
}

// consume drives one upstream stream and emits normalized events.
func (s *Service) consume(ctx context.Context, httpReq *http.Request, events chan<- domain.AnswerEvent) {
	defer close(events)

	resp, err := s.streamClient.Do(httpReq)
	if err != nil {
		send(ctx, events, domain.ErrorEvent(fmt.Sprintf("upstream request failed: %v", err)))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read the error body best-effort; a failed read still
		// produces a usable error event.
		body, readErr := io.ReadAll(resp.Body)
		detail := string(body)
		if readErr != nil || detail == "" {
			detail = "(no body)"
		}
		send(ctx, events, domain.ErrorEvent(fmt.Sprintf("upstream API error: status %d: %s", resp.StatusCode, detail)))
		return
	}

	// Generation-started marker, before the first real token.
	if !send(ctx, events, domain.Delta("")) {
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == terminalToken {
			send(ctx, events, domain.Done())
			return
		}

		content, ok := extractContent([]byte(payload))
		if !ok {
			// Malformed or content-free fragment: skip, never fatal.
			logger.Debug("skipping stream fragment: %.80s", payload)
			continue
		}
		if content == "" {
			continue
		}

		if !send(ctx, events, domain.Delta(content)) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Warn("stream read ended: %v", err)
	}

	// Connection closed without an explicit terminal token: still
	// terminate normally.
	send(ctx, events, domain.Done())
}

// send forwards an event unless the caller has gone away.
func send(ctx context.Context, events chan<- domain.AnswerEvent, ev domain.AnswerEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// streamPayload is the defensively-decoded shape of one upstream
// fragment. Providers disagree on where content lives, so every
// location is optional.
type streamPayload struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Text    *string `json:"text"`
	Content *string `json:"content"`
}

// contentExtractor pulls answer text out of a decoded fragment,
// returning false when its location is absent.
type contentExtractor func(*streamPayload) (string, bool)

// extractors is the ordered fallback chain; the first hit wins.
var extractors = []contentExtractor{
	deltaContent,
	messageContent,
	bareText,
	bareContent,
}

// extractContent parses a fragment payload and applies the fallback
// chain. Returns false for malformed JSON or a fragment with no
// content field, both of which are skipped by the caller.
func extractContent(payload []byte) (string, bool) {
	var parsed streamPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", false
	}

	for _, extract := range extractors {
		if content, ok := extract(&parsed); ok {
			return content, true
		}
	}
	return "", false
}

// deltaContent reads choices[0].delta.content.
func deltaContent(p *streamPayload) (string, bool) {
	if len(p.Choices) == 0 || p.Choices[0].Delta.Content == nil {
		return "", false
	}
	return *p.Choices[0].Delta.Content, true
}

// messageContent reads choices[0].message.content, which is either a
// plain string or an object carrying a "text" field.
func messageContent(p *streamPayload) (string, bool) {
	if len(p.Choices) == 0 || len(p.Choices[0].Message.Content) == 0 {
		return "", false
	}

	raw := p.Choices[0].Message.Content

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, true
	}

	var asObject struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil && asObject.Text != nil {
		return *asObject.Text, true
	}

	return "", false
}

// bareText reads a top-level "text" field.
func bareText(p *streamPayload) (string, bool) {
	if p.Text == nil {
		return "", false
	}
	return *p.Text, true
}

// bareContent reads a top-level "content" field.
func bareContent(p *streamPayload) (string, bool) {
	if p.Content == nil {
		return "", false
	}
	return *p.Content, true
}

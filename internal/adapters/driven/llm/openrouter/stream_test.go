package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driven"
)

// sseServer returns a test server that replies with the given SSE
// lines, each followed by a blank line.
func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	}))
}

func collect(t *testing.T, events <-chan domain.AnswerEvent) []domain.AnswerEvent {
	t.Helper()
	var out []domain.AnswerEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream events")
		}
	}
}

func streamRequest() driven.ChatRequest {
	return driven.ChatRequest{
		Model:  "test-model",
		APIKey: "test-key",
		Messages: []driven.ChatMessage{
			{Role: "system", Content: "answer from context"},
			{Role: "user", Content: "Context: ...\n\nQuestion: hi"},
		},
	}
}

func TestStream_NormalizesDeltas(t *testing.T) {
	srv := sseServer(t,
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: [DONE]`,
	)
	defer srv.Close()

	svc := New(Config{BaseURL: srv.URL})
	events, err := svc.Stream(context.Background(), streamRequest())
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 4)
	assert.Equal(t, domain.Delta(""), got[0])
	assert.Equal(t, domain.Delta("Hel"), got[1])
	assert.Equal(t, domain.Delta("lo"), got[2])
	assert.Equal(t, domain.Done(), got[3])
}

func TestStream_FallbackContentLocations(t *testing.T) {
	srv := sseServer(t,
		`data: {"choices":[{"message":{"content":"from message"}}]}`,
		`data: {"choices":[{"message":{"content":{"text":"nested text"}}}]}`,
		`data: {"text":"bare text"}`,
		`data: {"content":"bare content"}`,
		`data: [DONE]`,
	)
	defer srv.Close()

	svc := New(Config{BaseURL: srv.URL})
	events, err := svc.Stream(context.Background(), streamRequest())
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 6)
	assert.Equal(t, "from message", got[1].Content)
	assert.Equal(t, "nested text", got[2].Content)
	assert.Equal(t, "bare text", got[3].Content)
	assert.Equal(t, "bare content", got[4].Content)
	assert.Equal(t, domain.AnswerDone, got[5].Type)
}

func TestStream_SkipsMalformedAndContentFree(t *testing.T) {
	srv := sseServer(t,
		`data: {not valid json`,
		`: comment line`,
		`data: {"choices":[{"finish_reason":"stop"}]}`,
		`data: {"choices":[{"delta":{"content":"ok"}}]}`,
		`data: [DONE]`,
	)
	defer srv.Close()

	svc := New(Config{BaseURL: srv.URL})
	events, err := svc.Stream(context.Background(), streamRequest())
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 3)
	assert.Equal(t, domain.Delta(""), got[0])
	assert.Equal(t, domain.Delta("ok"), got[1])
	assert.Equal(t, domain.Done(), got[2])
}

func TestStream_MissingTerminalToken(t *testing.T) {
	srv := sseServer(t,
		`data: {"choices":[{"delta":{"content":"partial"}}]}`,
	)
	defer srv.Close()

	svc := New(Config{BaseURL: srv.URL})
	events, err := svc.Stream(context.Background(), streamRequest())
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 3)
	assert.Equal(t, domain.Delta("partial"), got[1])
	assert.Equal(t, domain.Done(), got[2], "connection close must still terminate the stream")
}

func TestStream_UpstreamRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad key"}`)
	}))
	defer srv.Close()

	svc := New(Config{BaseURL: srv.URL})
	events, err := svc.Stream(context.Background(), streamRequest())
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1, "exactly one error event and nothing else")
	assert.Equal(t, domain.AnswerError, got[0].Type)
	assert.Contains(t, got[0].Err, "401")
	assert.Contains(t, got[0].Err, "bad key")
}

func TestStream_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		flusher.Flush()
		<-release // hold the connection open
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	svc := New(Config{BaseURL: srv.URL})
	events, err := svc.Stream(ctx, streamRequest())
	require.NoError(t, err)

	// Read the start marker and first delta, then hang up.
	<-events
	<-events
	cancel()

	// The channel must close without a hang.
	for range events { //nolint:revive // draining
	}
}

func TestComplete_ReturnsAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "test-model", req.Model)

		fmt.Fprint(w, `{"choices":[{"message":{"content":"the answer"}}]}`)
	}))
	defer srv.Close()

	svc := New(Config{BaseURL: srv.URL})
	answer, err := svc.Complete(context.Background(), streamRequest())
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}

func TestComplete_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	svc := New(Config{BaseURL: srv.URL})
	_, err := svc.Complete(context.Background(), streamRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamRejected)
	assert.Contains(t, err.Error(), "429")
}

func TestExtractContent_Precedence(t *testing.T) {
	// delta.content wins over every other location.
	payload := `{"choices":[{"delta":{"content":"delta wins"},"message":{"content":"not this"}}],"text":"nor this"}`
	content, ok := extractContent([]byte(payload))
	require.True(t, ok)
	assert.Equal(t, "delta wins", content)
}

func TestExtractContent_EmptyDelta(t *testing.T) {
	content, ok := extractContent([]byte(`{"choices":[{"delta":{"content":""}}]}`))
	require.True(t, ok)
	assert.Empty(t, content)
}

func TestExtractContent_NoContent(t *testing.T) {
	_, ok := extractContent([]byte(`{"choices":[{"delta":{"role":"assistant"}}]}`))
	assert.False(t, ok)
}

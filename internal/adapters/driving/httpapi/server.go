// Package httpapi exposes the document and chat operations over HTTP.
// Owners are identified by the X-User header; requests without one act
// as the "default" user.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driving"
	"github.com/calder-labs/notari/internal/logger"
)

// DefaultOwner is used when a request carries no X-User header.
const DefaultOwner = "default"

// Config holds HTTP server settings.
type Config struct {
	// ListenAddr is the bind address, e.g. ":8000".
	ListenAddr string

	// TopK is the number of passages retrieved per chat question.
	TopK int
}

// Server routes HTTP requests to the driving services.
type Server struct {
	documents   driving.DocumentService
	retriever   driving.Retriever
	synthesizer driving.AnswerSynthesizer
	apiKeys     driving.APIKeyService
	topK        int

	httpServer *http.Server
}

// NewServer creates the HTTP server.
func NewServer(
	cfg Config,
	documents driving.DocumentService,
	retriever driving.Retriever,
	synthesizer driving.AnswerSynthesizer,
	apiKeys driving.APIKeyService,
) *Server {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}

	s := &Server{
		documents:   documents,
		retriever:   retriever,
		synthesizer: synthesizer,
		apiKeys:     apiKeys,
		topK:        cfg.TopK,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Routes builds the request multiplexer.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /status/{id}", s.handleStatus)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /api-key", s.handleSetAPIKey)
	mux.HandleFunc("GET /api-key", s.handleGetAPIKey)

	return mux
}

// Start serves requests until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("http: listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// owner resolves the requesting user.
func owner(r *http.Request) string {
	if u := r.Header.Get("X-User"); u != "" {
		return u
	}
	return DefaultOwner
}

// statusCode maps domain errors to HTTP status codes.
func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoCredential):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driving"
	"github.com/calder-labs/notari/internal/logger"
	"github.com/calder-labs/notari/internal/parser"
)

// maxUploadSize bounds uploaded files at 32 MiB.
const maxUploadSize = 32 << 20

// writeJSON sends a JSON response.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("http: writing response: %v", err)
	}
}

// writeError sends a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// documentResponse is the wire shape of one document.
type documentResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toDocumentResponse(doc domain.Document) documentResponse {
	return documentResponse{
		ID:        doc.ID,
		Filename:  doc.Filename,
		Status:    doc.Status.String(),
		CreatedAt: doc.CreatedAt,
	}
}

// handleUpload accepts a multipart file, extracts its text, and
// schedules background ingestion. The response returns before any
// chunking or embedding happens.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if !parser.Supported(header.Filename) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", header.Filename))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload")
		return
	}

	text, err := parser.Parse(header.Filename, data)
	if err != nil {
		writeError(w, statusCode(err), fmt.Sprintf("parsing %s: %v", header.Filename, err))
		return
	}

	doc, err := s.documents.Upload(r.Context(), owner(r), header.Filename, text)
	if err != nil {
		writeError(w, statusCode(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"status":      doc.Status.String(),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context(), owner(r))
	if err != nil {
		writeError(w, statusCode(err), err.Error())
		return
	}

	out := make([]documentResponse, len(docs))
	for i, doc := range docs {
		out[i] = toDocumentResponse(doc)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

// handleStatus reports a document's lifecycle status. Unknown IDs
// answer "not_found" rather than an error; polling clients treat it
// as just another state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.documents.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "not_found"})
			return
		}
		writeError(w, statusCode(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status.String()})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), r.PathValue("id"), owner(r)); err != nil {
		writeError(w, statusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// apiKeyRequest is the credential update payload.
type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.apiKeys.Set(r.Context(), owner(r), req.APIKey); err != nil {
		writeError(w, statusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleGetAPIKey(w http.ResponseWriter, r *http.Request) {
	_, err := s.apiKeys.Get(r.Context(), owner(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]bool{"configured": false})
			return
		}
		writeError(w, statusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"configured": true})
}

// chatRequest is the question payload.
type chatRequest struct {
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
	Model      string `json:"model,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
}

// handleChat retrieves grounding passages and streams the synthesized
// answer as server-sent events. Failures before the stream starts are
// plain JSON errors; failures mid-stream arrive as error events.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DocumentID == "" || req.Question == "" {
		writeError(w, http.StatusBadRequest, "document_id and question are required")
		return
	}

	passages, err := s.retriever.Retrieve(r.Context(), req.DocumentID, req.Question, s.topK)
	if err != nil {
		writeError(w, statusCode(err), err.Error())
		return
	}
	if len(passages) == 0 {
		writeError(w, http.StatusNotFound, "no context found for document")
		return
	}

	events, err := s.synthesizer.Stream(r.Context(), driving.SynthesisRequest{
		Question: req.Question,
		Passages: passages,
		Model:    req.Model,
		APIKey:   req.APIKey,
		Owner:    owner(r),
	})
	if err != nil {
		writeError(w, statusCode(err), err.Error())
		return
	}

	s.streamEvents(w, events)
}

// streamEvents forwards answer events as server-sent events.
func (s *Server) streamEvents(w http.ResponseWriter, events <-chan domain.AnswerEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		switch ev.Type {
		case domain.AnswerDelta:
			payload, err := json.Marshal(map[string]string{"content": ev.Content})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
		case domain.AnswerError:
			payload, err := json.Marshal(map[string]string{"error": ev.Err})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
		case domain.AnswerDone:
			fmt.Fprint(w, "data: [DONE]\n\n")
		}
		flusher.Flush()
	}
}

package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/core/ports/driving"
)

// fakeDocumentService serves canned documents.
type fakeDocumentService struct {
	docs    []domain.Document
	deleted []string
}

func (f *fakeDocumentService) Upload(_ context.Context, owner, filename, _ string) (*domain.Document, error) {
	doc := domain.Document{ID: "doc-new", Filename: filename, Owner: owner, Status: domain.StatusProcessing}
	f.docs = append(f.docs, doc)
	return &doc, nil
}

func (f *fakeDocumentService) List(_ context.Context, owner string) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range f.docs {
		if d.Owner == owner {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocumentService) Status(_ context.Context, id string) (domain.DocumentStatus, error) {
	for _, d := range f.docs {
		if d.ID == id {
			return d.Status, nil
		}
	}
	return "", domain.ErrNotFound
}

func (f *fakeDocumentService) Delete(_ context.Context, id, _ string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeRetriever returns fixed passages.
type fakeRetriever struct {
	passages []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, _, _ string, _ int) ([]string, error) {
	return f.passages, nil
}

// fakeSynthesizer streams scripted events.
type fakeSynthesizer struct {
	events []domain.AnswerEvent
}

func (f *fakeSynthesizer) Stream(_ context.Context, _ driving.SynthesisRequest) (<-chan domain.AnswerEvent, error) {
	ch := make(chan domain.AnswerEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (f *fakeSynthesizer) Answer(_ context.Context, _ driving.SynthesisRequest) (string, error) {
	return "", nil
}

// setupTestServices installs fakes and returns a cleanup restoring
// the previous wiring.
func setupTestServices(deps Deps) func() {
	prevDocs := documentService
	prevRetriever := retriever
	prevSynthesizer := synthesizer
	SetServices(deps)
	return func() {
		documentService = prevDocs
		retriever = prevRetriever
		synthesizer = prevSynthesizer
	}
}

// execute runs the root command with args and captures output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "notari version test-1.0.0")
}

func TestDocumentsCmd_HasSubcommands(t *testing.T) {
	commands := documentsCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "list")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "delete")
}

func TestDocumentsList_Empty(t *testing.T) {
	cleanup := setupTestServices(Deps{Documents: &fakeDocumentService{}})
	defer cleanup()

	out, err := execute(t, "documents", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found")
}

func TestDocumentsList_ShowsDocuments(t *testing.T) {
	docs := &fakeDocumentService{docs: []domain.Document{
		{ID: "doc-1", Filename: "notes.md", Owner: "default", Status: domain.StatusDone},
	}}
	cleanup := setupTestServices(Deps{Documents: docs})
	defer cleanup()

	out, err := execute(t, "documents", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "notes.md")
	assert.Contains(t, out, "done")
}

func TestDocumentsStatus(t *testing.T) {
	docs := &fakeDocumentService{docs: []domain.Document{
		{ID: "doc-1", Status: domain.StatusProcessing},
	}}
	cleanup := setupTestServices(Deps{Documents: docs})
	defer cleanup()

	out, err := execute(t, "documents", "status", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "processing")
}

func TestDocumentsDelete(t *testing.T) {
	docs := &fakeDocumentService{}
	cleanup := setupTestServices(Deps{Documents: docs})
	defer cleanup()

	out, err := execute(t, "documents", "delete", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted document: doc-1")
	assert.Equal(t, []string{"doc-1"}, docs.deleted)
}

func TestAsk_StreamsAnswer(t *testing.T) {
	cleanup := setupTestServices(Deps{
		Documents: &fakeDocumentService{},
		Retriever: &fakeRetriever{passages: []string{"context"}},
		Synthesizer: &fakeSynthesizer{events: []domain.AnswerEvent{
			domain.Delta(""),
			domain.Delta("Hello"),
			domain.Delta(" world"),
			domain.Done(),
		}},
	})
	defer cleanup()

	out, err := execute(t, "ask", "doc-1", "what is this?")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello world")
}

func TestAsk_NoContext(t *testing.T) {
	cleanup := setupTestServices(Deps{
		Documents:   &fakeDocumentService{},
		Retriever:   &fakeRetriever{},
		Synthesizer: &fakeSynthesizer{},
	})
	defer cleanup()

	_, err := execute(t, "ask", "doc-1", "anything?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no context found")
}

func TestAsk_ErrorEvent(t *testing.T) {
	cleanup := setupTestServices(Deps{
		Documents: &fakeDocumentService{},
		Retriever: &fakeRetriever{passages: []string{"context"}},
		Synthesizer: &fakeSynthesizer{events: []domain.AnswerEvent{
			domain.ErrorEvent("upstream API error: status 401"),
		}},
	})
	defer cleanup()

	_, err := execute(t, "ask", "doc-1", "anything?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestAsk_RequiresTwoArgs(t *testing.T) {
	_, err := execute(t, "ask", "doc-1")
	assert.Error(t, err)
}

// Command notari is the personal knowledge assistant: it ingests
// documents, indexes them for semantic retrieval, and answers
// questions grounded in their content.
package main

import (
	"fmt"
	"os"

	configfile "github.com/calder-labs/notari/internal/adapters/driven/config/file"
	"github.com/calder-labs/notari/internal/adapters/driven/crypto"
	"github.com/calder-labs/notari/internal/adapters/driven/embedding/ollama"
	"github.com/calder-labs/notari/internal/adapters/driven/embedding/openai"
	"github.com/calder-labs/notari/internal/adapters/driven/embedding/pool"
	"github.com/calder-labs/notari/internal/adapters/driven/llm/openrouter"
	"github.com/calder-labs/notari/internal/adapters/driven/storage/sqlite"
	"github.com/calder-labs/notari/internal/adapters/driving/cli"
	"github.com/calder-labs/notari/internal/adapters/driving/httpapi"
	"github.com/calder-labs/notari/internal/chunker"
	"github.com/calder-labs/notari/internal/core/ports/driven"
	"github.com/calder-labs/notari/internal/core/services"
)

func main() {
	cli.SetInitializer(buildServices)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildServices constructs the full service graph from configuration.
// Each component is constructed once and shared.
func buildServices(configPath string) (cli.Deps, error) {
	cfg, err := configfile.Load(configPath)
	if err != nil {
		return cli.Deps{}, fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return cli.Deps{}, fmt.Errorf("opening store: %w", err)
	}

	cipherSecret := cfg.Storage.CipherSecret
	if cipherSecret == "" {
		// Keys sealed with the default secret survive restarts but
		// not a move to another config; set cipher_secret for that.
		cipherSecret = "notari-default-secret"
	}
	cipher, err := crypto.NewKeyCipher(cipherSecret)
	if err != nil {
		return cli.Deps{}, fmt.Errorf("creating key cipher: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return cli.Deps{}, err
	}
	pooled := pool.New(embedder, cfg.Ingest.Workers, cfg.Ingest.QueueSize)

	chk, err := chunker.New(
		chunker.WithChunkSize(cfg.Ingest.ChunkSize),
		chunker.WithOverlap(cfg.Ingest.Overlap),
	)
	if err != nil {
		return cli.Deps{}, fmt.Errorf("configuring chunker: %w", err)
	}

	llm := openrouter.New(openrouter.Config{
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
	})

	docStore := store.DocumentStore()
	apiKeyStore := store.APIKeyStore()
	vectorIndex := store.VectorIndex()

	ingestor := services.NewIngestService(services.IngestConfig{
		Workers:   cfg.Ingest.Workers,
		QueueSize: cfg.Ingest.QueueSize,
	}, chk, pooled, vectorIndex, docStore)

	documents := services.NewDocumentManager(docStore, vectorIndex, ingestor)
	retriever := services.NewRetrievalService(pooled, vectorIndex)
	synthesizer := services.NewAnswerService(llm, apiKeyStore, cipher)
	apiKeys := services.NewAPIKeyManager(apiKeyStore, cipher)

	server := httpapi.NewServer(httpapi.Config{
		ListenAddr: cfg.Server.ListenAddr,
		TopK:       cfg.Chat.TopK,
	}, documents, retriever, synthesizer, apiKeys)

	return cli.Deps{
		Documents:   documents,
		Retriever:   retriever,
		Synthesizer: synthesizer,
		APIKeys:     apiKeys,
		Ingestor:    ingestor,
		HTTPServer:  server,
		TopK:        cfg.Chat.TopK,
	}, nil
}

// buildEmbedder selects the embedding backend from configuration.
func buildEmbedder(cfg configfile.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		}), nil
	case "openai", "":
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embedding service: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
	}
}

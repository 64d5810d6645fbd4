package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/shiksha-ai/shiksha-go/internal/docstore"
	"github.com/shiksha-ai/shiksha-go/internal/embedder"
	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

// getEnvOrDefault returns the environment variable's value, or fallback when
// unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the environment variable parsed as int, or fallback when
// unset or unparseable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// buildVectorStore connects to Qdrant using the standard environment surface
// and sizes vectors for the configured embedding backend.
func buildVectorStore(log *slog.Logger) (*rag.QdrantStore, error) {
	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	vectorSize := uint64(embedder.DefaultDimensions(embedder.Backend())) //nolint:gosec // dimensions are bounded

	store, err := rag.NewQdrantStore(&rag.QdrantConfig{
		Host:       host,
		Port:       port,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}
	log.Info("qdrant store ready", slog.String("host", host), slog.Int("port", port))
	return store, nil
}

// retrieval bundles the shared retrieval stack built by buildRetrieval.
type retrieval struct {
	Embedder  rag.Embedder
	Store     *rag.QdrantStore
	Retriever *rag.Retriever
	Assembler *rag.Assembler
}

// buildRetrieval wires the embedder, vector store, retriever, and context
// assembler shared by the chat, paper, and grading paths. The returned close
// function releases the Qdrant connection.
func buildRetrieval(ctx context.Context, log *slog.Logger) (*retrieval, func(), error) {
	if err := embedder.Validate(log); err != nil {
		return nil, nil, err
	}

	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised", slog.String("backend", embedder.Backend()))

	store, err := buildVectorStore(log)
	if err != nil {
		return nil, nil, err
	}

	retriever, err := rag.NewRetriever(emb, store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("qdrant close failed", slog.Any("error", cerr))
		}
	}
	return &retrieval{
		Embedder:  emb,
		Store:     store,
		Retriever: retriever,
		Assembler: rag.NewAssembler(0),
	}, closeFn, nil
}

// buildDocstore opens the SQLite document store. SHIKSHA_DOCSTORE_DB
// overrides the default path (~/.shiksha/documents.db).
func buildDocstore(log *slog.Logger) (*docstore.SQLiteStore, error) {
	path := os.Getenv("SHIKSHA_DOCSTORE_DB")
	if path == "" {
		var err error
		path, err = docstore.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve docstore path: %w", err)
		}
	}
	store, err := docstore.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open docstore: %w", err)
	}
	log.Info("docstore opened", slog.String("path", path))
	return store, nil
}

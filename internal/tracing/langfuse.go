// Package tracing wires Langfuse observability into the eino callback chain.
// Tracing is opt-in: without credentials the backend runs untraced.
package tracing

import (
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// defaultHost matches a local Langfuse started with its docker-compose setup.
const defaultHost = "http://localhost:3000"

// Setup builds a Langfuse callback handler from the LANGFUSE_PUBLIC_KEY,
// LANGFUSE_SECRET_KEY, and LANGFUSE_HOST environment variables. Every chat,
// paper-generation, and grading model call then shows up as a trace. The
// returned flush function drains buffered spans and must run before the
// process exits. When the keys are absent, Setup reports false and the caller
// skips handler registration.
func Setup() (callbacks.Handler, func(), bool) {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		return nil, nil, false
	}

	host := os.Getenv("LANGFUSE_HOST")
	if host == "" {
		host = defaultHost
	}

	handler, flush := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
	})
	return handler, flush, true
}

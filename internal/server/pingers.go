package server

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// pingable matches any store exposing a connection-liveness check.
// *docstore.SQLiteStore satisfies it.
type pingable interface {
	Ping(ctx context.Context) error
}

// DocstorePinger probes the document store's database connection.
// It satisfies the Pinger interface and is used by GET /api/ready.
type DocstorePinger struct {
	store pingable
}

// NewDocstorePinger constructs a DocstorePinger for the given store.
func NewDocstorePinger(store pingable) *DocstorePinger {
	return &DocstorePinger{store: store}
}

// Name returns the dependency label used in readiness responses.
func (p *DocstorePinger) Name() string { return "docstore" }

// Ping verifies the document database connection is alive.
func (p *DocstorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

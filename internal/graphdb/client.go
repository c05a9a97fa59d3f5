// Package graphdb provides the property-graph backend consumed by the
// construction stage. The workflow core depends only on the Client
// interface; the Neo4j implementation keeps all Cypher in one place.
package graphdb

import (
	"context"
	"time"

	errx "github.com/agentic-kg-poc/server/internal/core/error"
)

// JoinRule describes how to match source and target nodes when creating
// relationships: an edge is created where from.FromProperty = to.ToProperty.
type JoinRule struct {
	FromProperty string
	ToProperty   string
}

// Client is the narrow surface the construction stage needs from a graph
// store. Implementations must be safe for concurrent use.
type Client interface {
	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	// Clear removes all nodes and relationships. Destructive; callers gate
	// it behind an explicit opt-in.
	Clear(ctx context.Context) error

	// EnsureConstraint creates a uniqueness constraint on (label, key).
	// Idempotent: repeating the call leaves the backend unchanged.
	EnsureConstraint(ctx context.Context, label, key string) error

	// UpsertNodes merges one node per row, keyed by the key property.
	// Returns the number of nodes newly created.
	UpsertNodes(ctx context.Context, label, key string, rows []map[string]any) (int64, error)

	// CreateRelationships merges edges between existing nodes matched by
	// the join rule. Returns the number of relationships newly created;
	// rows whose join value matches no endpoint simply create nothing.
	CreateRelationships(ctx context.Context, relType, fromLabel, toLabel string, join JoinRule) (int64, error)

	// CountByLabel returns per-label node counts and per-type relationship
	// counts for verification.
	CountByLabel(ctx context.Context) (nodes map[string]int64, rels map[string]int64, err error)

	// SamplePaths returns up to limit rendered multi-hop paths between
	// nodes of different labels, for human verification of connectivity.
	SamplePaths(ctx context.Context, maxDepth, limit int) ([]string, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Config contains connection options for the Neo4j backend, sourced from
// environment variables.
type Config struct {
	URI                string `envconfig:"NEO4J_URI" default:"bolt://localhost:7687"`
	Username           string `envconfig:"NEO4J_USERNAME" default:"neo4j"`
	Password           string `envconfig:"NEO4J_PASSWORD" required:"true"`
	Database           string `envconfig:"NEO4J_DATABASE"`
	ConnectionTimeoutS int    `envconfig:"NEO4J_CONNECTION_TIMEOUT" default:"30"`
	MaxPoolSize        int    `envconfig:"NEO4J_MAX_POOL_SIZE" default:"50"`
	MaxTxRetrySeconds  int    `envconfig:"NEO4J_MAX_TX_RETRY" default:"30"`
}

// Validate checks that the configuration can produce a usable client.
func (c Config) Validate() error {
	if c.URI == "" {
		return errx.Validation("invalid graph config", "URI cannot be empty")
	}
	if c.Username == "" {
		return errx.Validation("invalid graph config", "username cannot be empty")
	}
	if c.Password == "" {
		return errx.Validation("invalid graph config", "password cannot be empty")
	}
	return nil
}

// ConnectionTimeout returns the configured timeout as a duration.
func (c Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutS) * time.Second
}

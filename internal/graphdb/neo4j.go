package graphdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	errx "github.com/agentic-kg-poc/server/internal/core/error"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// Neo4jClient implements Client against a Cypher-speaking Neo4j instance.
type Neo4jClient struct {
	config Config
	driver neo4j.DriverWithContext
}

// NewNeo4jClient validates the configuration and opens a driver. The driver
// pools connections internally; Ping verifies actual connectivity.
func NewNeo4jClient(config Config) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	auth := neo4j.BasicAuth(config.Username, config.Password, "")
	driver, err := neo4j.NewDriverWithContext(config.URI, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = config.MaxPoolSize
		c.ConnectionAcquisitionTimeout = config.ConnectionTimeout()
		c.MaxTransactionRetryTime = time.Duration(config.MaxTxRetrySeconds) * time.Second
	})
	if err != nil {
		return nil, errx.WrapNeo4j(err)
	}

	return &Neo4jClient{config: config, driver: driver}, nil
}

func (c *Neo4jClient) session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.config.Database})
}

// Ping verifies connectivity to the Neo4j instance.
func (c *Neo4jClient) Ping(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return errx.WrapNeo4j(err)
	}
	return nil
}

// Clear removes every node and relationship in the database.
func (c *Neo4jClient) Clear(ctx context.Context) error {
	_, err := c.write(ctx, "MATCH (n) DETACH DELETE n", nil)
	if err != nil {
		return err
	}
	logx.Warn().Msg("graph cleared")
	return nil
}

// EnsureConstraint creates a uniqueness constraint on (label, key).
// CREATE CONSTRAINT ... IF NOT EXISTS makes the call idempotent.
func (c *Neo4jClient) EnsureConstraint(ctx context.Context, label, key string) error {
	cypher := fmt.Sprintf(
		"CREATE CONSTRAINT `%s_%s_unique` IF NOT EXISTS FOR (n:`%s`) REQUIRE n.`%s` IS UNIQUE",
		label, key, label, key,
	)
	_, err := c.write(ctx, cypher, nil)
	return err
}

// UpsertNodes merges one node per row keyed by the key property.
func (c *Neo4jClient) UpsertNodes(ctx context.Context, label, key string, rows []map[string]any) (int64, error) {
	cypher := fmt.Sprintf(
		"UNWIND $rows AS row MERGE (n:`%s` {`%s`: row.`%s`}) SET n += row",
		label, key, key,
	)
	summary, err := c.write(ctx, cypher, map[string]any{"rows": rows})
	if err != nil {
		return 0, err
	}
	return int64(summary.Counters().NodesCreated()), nil
}

// CreateRelationships merges edges between nodes matched by the join rule.
func (c *Neo4jClient) CreateRelationships(ctx context.Context, relType, fromLabel, toLabel string, join JoinRule) (int64, error) {
	cypher := fmt.Sprintf(
		"MATCH (from:`%s`), (to:`%s`) "+
			"WHERE from.`%s` IS NOT NULL AND from.`%s` = to.`%s` "+
			"MERGE (from)-[r:`%s`]->(to)",
		fromLabel, toLabel, join.FromProperty, join.FromProperty, join.ToProperty, relType,
	)
	summary, err := c.write(ctx, cypher, nil)
	if err != nil {
		return 0, err
	}
	return int64(summary.Counters().RelationshipsCreated()), nil
}

// CountByLabel returns per-label node counts and per-type relationship counts.
func (c *Neo4jClient) CountByLabel(ctx context.Context) (map[string]int64, map[string]int64, error) {
	nodes, err := c.countQuery(ctx, "MATCH (n) RETURN labels(n)[0] AS label, count(n) AS count")
	if err != nil {
		return nil, nil, err
	}
	rels, err := c.countQuery(ctx, "MATCH ()-[r]->() RETURN type(r) AS label, count(r) AS count")
	if err != nil {
		return nil, nil, err
	}
	return nodes, rels, nil
}

// SamplePaths renders up to limit multi-hop paths between differently
// labelled nodes, e.g. "Product -> Assembly -> Part".
func (c *Neo4jClient) SamplePaths(ctx context.Context, maxDepth, limit int) ([]string, error) {
	cypher := fmt.Sprintf(
		"MATCH p = (a)-[*1..%d]-(b) WHERE labels(a) <> labels(b) "+
			"RETURN [n IN nodes(p) | labels(n)[0]] AS hops LIMIT $limit",
		maxDepth,
	)
	records, err := c.read(ctx, cypher, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(records))
	for _, rec := range records {
		hops, ok := rec["hops"].([]any)
		if !ok {
			continue
		}
		parts := make([]string, 0, len(hops))
		for _, h := range hops {
			if s, ok := h.(string); ok {
				parts = append(parts, s)
			}
		}
		paths = append(paths, strings.Join(parts, " -> "))
	}
	return paths, nil
}

// Close releases the driver and its connection pool.
func (c *Neo4jClient) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	if err := c.driver.Close(ctx); err != nil {
		return errx.WrapNeo4j(err)
	}
	c.driver = nil
	return nil
}

func (c *Neo4jClient) write(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultSummary, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		logx.Error().Err(err).Str("cypher", cypher).Msg("write query failed")
		return nil, errx.WrapNeo4j(err)
	}
	return result.(neo4j.ResultSummary), nil
}

func (c *Neo4jClient) read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			row := make(map[string]any, len(record.Keys))
			for i, k := range record.Keys {
				row[k] = record.Values[i]
			}
			rows = append(rows, row)
		}
		return rows, nil
	})
	if err != nil {
		logx.Error().Err(err).Str("cypher", cypher).Msg("read query failed")
		return nil, errx.WrapNeo4j(err)
	}
	return result.([]map[string]any), nil
}

func (c *Neo4jClient) countQuery(ctx context.Context, cypher string) (map[string]int64, error) {
	records, err := c.read(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(records))
	for _, rec := range records {
		label, ok := rec["label"].(string)
		if !ok {
			continue
		}
		if n, ok := rec["count"].(int64); ok {
			counts[label] = n
		}
	}
	return counts, nil
}

var _ Client = (*Neo4jClient)(nil)

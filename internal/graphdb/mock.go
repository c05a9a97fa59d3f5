package graphdb

import (
	"context"
	"fmt"
	"sync"

	errx "github.com/agentic-kg-poc/server/internal/core/error"
)

// MockClient is an in-memory Client used by tests and local dry runs. It
// honours MERGE semantics (keyed upserts, deduplicated edges) so ordering
// and soft-failure behaviour can be observed without a live backend.
type MockClient struct {
	mu sync.Mutex

	// Constraints counts EnsureConstraint calls per (label, key).
	Constraints map[string]int
	// Nodes maps label -> key value -> properties.
	Nodes map[string]map[string]map[string]any
	// Edges maps relationship type -> "fromKey->toKey" -> struct{}.
	Edges map[string]map[string]struct{}
	// edgeLabels remembers the (fromLabel, toLabel) pair per relationship type.
	edgeLabels map[string][2]string

	// Calls records method invocations in order, for ordering assertions.
	Calls []string

	// FailOn, when set, makes the named method return FailErr.
	FailOn  string
	FailErr error

	keyProps map[string]string
}

// NewMockClient returns an empty in-memory graph.
func NewMockClient() *MockClient {
	return &MockClient{
		Constraints: make(map[string]int),
		Nodes:       make(map[string]map[string]map[string]any),
		Edges:       make(map[string]map[string]struct{}),
		edgeLabels:  make(map[string][2]string),
		keyProps:    make(map[string]string),
	}
}

func (m *MockClient) fail(method string) error {
	if m.FailOn == method {
		if m.FailErr != nil {
			return m.FailErr
		}
		return errx.New(errx.KindBackend, GraphUnavailableMessage)
	}
	return nil
}

// GraphUnavailableMessage is the default mock failure message.
const GraphUnavailableMessage = "graph backend unavailable"

func (m *MockClient) record(method string) {
	m.Calls = append(m.Calls, method)
}

func (m *MockClient) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Ping")
	return m.fail("Ping")
}

func (m *MockClient) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Clear")
	if err := m.fail("Clear"); err != nil {
		return err
	}
	m.Nodes = make(map[string]map[string]map[string]any)
	m.Edges = make(map[string]map[string]struct{})
	return nil
}

func (m *MockClient) EnsureConstraint(ctx context.Context, label, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("EnsureConstraint:" + label)
	if err := m.fail("EnsureConstraint"); err != nil {
		return err
	}
	m.Constraints[label+"."+key]++
	m.keyProps[label] = key
	return nil
}

func (m *MockClient) UpsertNodes(ctx context.Context, label, key string, rows []map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UpsertNodes:" + label)
	if err := m.fail("UpsertNodes"); err != nil {
		return 0, err
	}

	if m.Nodes[label] == nil {
		m.Nodes[label] = make(map[string]map[string]any)
	}
	m.keyProps[label] = key

	var created int64
	for _, row := range rows {
		kv := fmt.Sprint(row[key])
		if _, exists := m.Nodes[label][kv]; !exists {
			created++
		}
		m.Nodes[label][kv] = row
	}
	return created, nil
}

func (m *MockClient) CreateRelationships(ctx context.Context, relType, fromLabel, toLabel string, join JoinRule) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateRelationships:" + relType)
	if err := m.fail("CreateRelationships"); err != nil {
		return 0, err
	}

	if m.Edges[relType] == nil {
		m.Edges[relType] = make(map[string]struct{})
	}
	m.edgeLabels[relType] = [2]string{fromLabel, toLabel}

	var created int64
	for fromKey, fromProps := range m.Nodes[fromLabel] {
		fv, ok := fromProps[join.FromProperty]
		if !ok || fv == nil || fv == "" {
			continue
		}
		for toKey, toProps := range m.Nodes[toLabel] {
			if fmt.Sprint(toProps[join.ToProperty]) != fmt.Sprint(fv) {
				continue
			}
			edge := fromKey + "->" + toKey
			if _, exists := m.Edges[relType][edge]; !exists {
				m.Edges[relType][edge] = struct{}{}
				created++
			}
		}
	}
	return created, nil
}

func (m *MockClient) CountByLabel(ctx context.Context) (map[string]int64, map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CountByLabel")
	if err := m.fail("CountByLabel"); err != nil {
		return nil, nil, err
	}

	nodes := make(map[string]int64, len(m.Nodes))
	for label, byKey := range m.Nodes {
		nodes[label] = int64(len(byKey))
	}
	rels := make(map[string]int64, len(m.Edges))
	for relType, edges := range m.Edges {
		rels[relType] = int64(len(edges))
	}
	return nodes, rels, nil
}

func (m *MockClient) SamplePaths(ctx context.Context, maxDepth, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SamplePaths")
	if err := m.fail("SamplePaths"); err != nil {
		return nil, err
	}

	var paths []string
	for relType, edges := range m.Edges {
		if len(edges) == 0 {
			continue
		}
		if len(paths) >= limit {
			break
		}
		labels := m.edgeLabels[relType]
		paths = append(paths, labels[0]+" -> "+labels[1])
	}
	return paths, nil
}

func (m *MockClient) Close(ctx context.Context) error {
	return nil
}

// NodeCount returns how many nodes exist for a label.
func (m *MockClient) NodeCount(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Nodes[label])
}

// EdgeCount returns how many edges exist for a relationship type.
func (m *MockClient) EdgeCount(relType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Edges[relType])
}

var _ Client = (*MockClient)(nil)

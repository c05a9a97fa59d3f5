package proposer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
)

func testGoal() *model.Goal {
	return &model.Goal{
		Description: "Build a graph connecting products to their suppliers",
		GraphType:   model.GraphTypeDomain,
		Status:      model.StatusApproved,
	}
}

func TestStaticRankFiles(t *testing.T) {
	s := NewStatic()

	suggestion, err := s.Propose(context.Background(), Request{
		Task: TaskRankFiles,
		Goal: testGoal(),
		Candidates: []model.FileCandidate{
			{Path: "weather.csv", Kind: model.FileStructured, Columns: []string{"day", "temp"}},
			{Path: "products.csv", Kind: model.FileStructured, Columns: []string{"product_id", "supplier_id"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, suggestion.RankedFiles, 2)

	// The goal mentions products and suppliers, so products.csv outranks
	// the unrelated file.
	assert.Equal(t, "products.csv", suggestion.RankedFiles[0].Path)
	assert.Greater(t, suggestion.RankedFiles[0].Score, suggestion.RankedFiles[1].Score)
	assert.Contains(t, suggestion.RankedFiles[0].Reason, "products")
}

func TestStaticRankFilesRequiresGoal(t *testing.T) {
	s := NewStatic()
	_, err := s.Propose(context.Background(), Request{Task: TaskRankFiles})
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindValidation))
}

func TestStaticProposeEntities(t *testing.T) {
	s := NewStatic()

	suggestion, err := s.Propose(context.Background(), Request{
		Task: TaskProposeEntities,
		Goal: testGoal(),
		Candidates: []model.FileCandidate{
			{Path: "products.csv", Kind: model.FileStructured},
			{Path: "supplier_notes.md", Kind: model.FileUnstructured, Sample: "Acme ships from Berlin"},
		},
	})
	require.NoError(t, err)

	// Only unstructured files yield entity proposals.
	require.Len(t, suggestion.EntityNodes, 1)
	n := suggestion.EntityNodes[0]
	assert.Equal(t, "SupplierNote", n.Label)
	assert.Equal(t, "supplier_notes.md", n.SourceFile)
	assert.Equal(t, "name", n.KeyProperty)
	assert.Empty(t, suggestion.EntityRelationships)
}

func TestStaticUnknownTask(t *testing.T) {
	s := NewStatic()
	_, err := s.Propose(context.Background(), Request{Task: Task("summarise")})
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindValidation))
}

func TestStaticRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic().Propose(ctx, Request{Task: TaskRankFiles, Goal: testGoal()})
	assert.ErrorIs(t, err, context.Canceled)
}

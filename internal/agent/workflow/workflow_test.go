package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	"github.com/agentic-kg-poc/server/internal/agent/proposer"
	"github.com/agentic-kg-poc/server/internal/agent/session"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	"github.com/agentic-kg-poc/server/internal/graphdb"
)

const testGoal = "Build a supply chain graph linking products, suppliers, orders and shipments"

func writeInput(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// supplyChainDir lays out four structured files whose foreign keys chain
// Shipment -> Order -> Product -> Supplier.
func supplyChainDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeInput(t, dir, "products.csv", "product_id,name,supplier_id\np1,Widget,s1\np2,Gadget,s2\n")
	writeInput(t, dir, "suppliers.csv", "supplier_id,name,city\ns1,Acme,Berlin\ns2,Globex,Paris\n")
	writeInput(t, dir, "orders.csv", "order_id,product_id,quantity\no1,p1,5\no2,p2,3\n")
	writeInput(t, dir, "shipments.csv", "shipment_id,order_id,carrier\nsh1,o1,DHL\nsh2,o2,UPS\n")
	return dir
}

func newTestCoordinator(t *testing.T, inputDir string) (*Coordinator, *graphdb.MockClient) {
	t.Helper()
	var cfg model.WorkflowConfig
	cfg.SessionTTL = "1h"
	cfg.Construction.ChunkSize = 2
	cfg.Construction.SamplePaths = 3
	cfg.Data.InputDir = inputDir
	cfg.Data.OutputDir = t.TempDir()

	mock := graphdb.NewMockClient()
	store := session.NewMemoryStore(time.Hour)
	return New(store, proposer.NewStatic(), mock, cfg), mock
}

func createSession(t *testing.T, c *Coordinator) string {
	t.Helper()
	sess, err := c.CreateSession(context.Background(), "tester")
	require.NoError(t, err)
	return sess.ID
}

func approveGoal(t *testing.T, c *Coordinator, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := c.SetPerceivedGoal(ctx, id, testGoal, "domain")
	require.NoError(t, err)
	require.NoError(t, c.ApproveGoal(ctx, id))
}

func approveAllFiles(t *testing.T, c *Coordinator, id string) {
	t.Helper()
	ctx := context.Background()
	suggestions, err := c.SuggestFiles(ctx, id)
	require.NoError(t, err)
	paths := make([]string, len(suggestions))
	for i, s := range suggestions {
		paths[i] = s.Path
	}
	require.NoError(t, c.ApproveFiles(ctx, id, paths))
}

func approvePlan(t *testing.T, c *Coordinator, id string) *model.ConstructionPlan {
	t.Helper()
	ctx := context.Background()
	plan, err := c.ProposePlan(ctx, id)
	require.NoError(t, err)
	require.NoError(t, c.ApprovePlan(ctx, id))
	return plan
}

func TestApproveGoalRequiresPerceivedGoal(t *testing.T) {
	c, _ := newTestCoordinator(t, t.TempDir())
	id := createSession(t, c)

	err := c.ApproveGoal(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
}

func TestApproveGoalTwiceRejected(t *testing.T) {
	c, _ := newTestCoordinator(t, t.TempDir())
	id := createSession(t, c)
	approveGoal(t, c, id)

	err := c.ApproveGoal(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
}

func TestSetGoalAfterApprovalRejected(t *testing.T) {
	c, _ := newTestCoordinator(t, t.TempDir())
	id := createSession(t, c)
	approveGoal(t, c, id)

	_, err := c.SetPerceivedGoal(context.Background(), id, "A completely different goal for this graph", "semantic")
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
}

func TestRejectedGoalCanBeRefined(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t, t.TempDir())
	id := createSession(t, c)

	_, err := c.SetPerceivedGoal(ctx, id, "Build a graph of unrelated trivia facts", "domain")
	require.NoError(t, err)
	require.NoError(t, c.RejectGoal(ctx, id))

	err = c.ApproveGoal(ctx, id)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))

	_, err = c.SetPerceivedGoal(ctx, id, testGoal, "domain")
	require.NoError(t, err)
	require.NoError(t, c.ApproveGoal(ctx, id))
}

func TestSuggestFilesRequiresApprovedGoal(t *testing.T) {
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)

	_, err := c.SuggestFiles(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
	assert.Contains(t, err.Error(), "suggest files")
}

func TestApproveFilesUnknownPathNamed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)

	_, err := c.SuggestFiles(ctx, id)
	require.NoError(t, err)

	err = c.ApproveFiles(ctx, id, []string{"products.csv", "secrets.csv"})
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindValidation))
	details := errx.DetailsOf(err)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "secrets.csv")

	// The approved set is unchanged by the failed call.
	sess, err := c.Session(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, sess.ApprovedFiles)
	assert.Equal(t, model.StepIntentCaptured, sess.Step)
}

func TestApproveFilesEmptySelectionRejected(t *testing.T) {
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)

	err := c.ApproveFiles(context.Background(), id, nil)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindValidation))
}

func TestApproveFilesBeforeSuggestRejected(t *testing.T) {
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)

	err := c.ApproveFiles(context.Background(), id, []string{"products.csv"})
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
}

func TestProposePlanDerivesForeignKeys(t *testing.T) {
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)

	plan, err := c.ProposePlan(context.Background(), id)
	require.NoError(t, err)

	require.Len(t, plan.Nodes, 4)
	product, ok := plan.NodeType("Product")
	require.True(t, ok)
	assert.Equal(t, "product_id", product.KeyProperty)
	assert.ElementsMatch(t, []string{"name", "supplier_id"}, product.Properties)

	require.Len(t, plan.Relationships, 3)
	byLabel := make(map[string]model.RelationshipType)
	for _, r := range plan.Relationships {
		byLabel[r.Label] = r
	}
	r := byLabel["HAS_SUPPLIER"]
	assert.Equal(t, "Product", r.From)
	assert.Equal(t, "Supplier", r.To)
	assert.Equal(t, "supplier_id", r.FromProperty)
	assert.Equal(t, "supplier_id", r.ToProperty)
	assert.Contains(t, byLabel, "HAS_PRODUCT")
	assert.Contains(t, byLabel, "HAS_ORDER")
}

func TestApprovePlanListsDanglingEndpoints(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)

	_, err := c.ProposePlan(ctx, id)
	require.NoError(t, err)

	// Store a plan with an undeclared endpoint.
	require.NoError(t, c.store.Update(ctx, id, func(s *model.Session) error {
		s.Plan.Relationships = append(s.Plan.Relationships, model.RelationshipType{
			Label: "CONTAINS", From: "Product", To: "Widget",
		})
		return nil
	}))

	err = c.ApprovePlan(ctx, id)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindValidation))
	details := errx.DetailsOf(err)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "Widget")

	sess, err := c.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepFilesApproved, sess.Step)
	assert.Equal(t, model.PlanPerceived, sess.Plan.Status)
}

func TestApprovedPlanImmutableThroughSnapshots(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)
	approvePlan(t, c, id)

	// A caller mutating a returned plan must not reach the stored one.
	plan, err := c.Plan(ctx, id)
	require.NoError(t, err)
	plan.Status = model.PlanPerceived
	plan.Relationships = nil
	plan.Nodes[0].Label = "Mutated"

	stored, err := c.Plan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.PlanApproved, stored.Status)
	assert.Len(t, stored.Relationships, 3)
	assert.NotEqual(t, "Mutated", stored.Nodes[0].Label)

	sess, err := c.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepPlanApproved, sess.Step)
	assert.Equal(t, model.PlanApproved, sess.Plan.Status)
}

func TestConstructBeforePlanApprovalRejected(t *testing.T) {
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)

	_, err := c.Construct(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
}

func TestConstructHappyPath(t *testing.T) {
	ctx := context.Background()
	c, mock := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)
	approvePlan(t, c, id)

	stats, err := c.Construct(ctx, id)
	require.NoError(t, err)

	for _, label := range []string{"Product", "Supplier", "Order", "Shipment"} {
		assert.Equal(t, int64(2), stats.NodesByLabel[label], label)
	}
	for _, rel := range []string{"HAS_SUPPLIER", "HAS_PRODUCT", "HAS_ORDER"} {
		assert.Equal(t, int64(2), stats.RelationshipsByLabel[rel], rel)
	}
	assert.Zero(t, stats.Skipped.Total())
	assert.NotEmpty(t, stats.SamplePaths)

	sess, err := c.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepConstructed, sess.Step)
	require.NotNil(t, sess.Statistics)

	// Constraints were ensured for every node type.
	assert.Equal(t, 1, mock.Constraints["Product.product_id"])
	assert.Equal(t, 1, mock.Constraints["Supplier.supplier_id"])
}

func TestConstructOrdersNodeLoadsBeforeRelationships(t *testing.T) {
	c, mock := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)
	approvePlan(t, c, id)

	_, err := c.Construct(context.Background(), id)
	require.NoError(t, err)

	lastUpsert, firstRel := -1, len(mock.Calls)
	for i, call := range mock.Calls {
		if strings.HasPrefix(call, "UpsertNodes:") && i > lastUpsert {
			lastUpsert = i
		}
		if strings.HasPrefix(call, "CreateRelationships:") && i < firstRel {
			firstRel = i
		}
	}
	require.GreaterOrEqual(t, lastUpsert, 0)
	assert.Less(t, lastUpsert, firstRel)
}

func TestConstraintEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mock := graphdb.NewMockClient()

	require.NoError(t, mock.EnsureConstraint(ctx, "Product", "product_id"))
	_, err := mock.UpsertNodes(ctx, "Product", "product_id", nil)
	require.NoError(t, err)
	before := mock.NodeCount("Product")

	require.NoError(t, mock.EnsureConstraint(ctx, "Product", "product_id"))
	assert.Equal(t, before, mock.NodeCount("Product"))
	assert.Equal(t, 2, mock.Constraints["Product.product_id"])
}

func TestConstructCountsSkippedRows(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "products.csv", "product_id,name\np1,Widget\n,Ghost\np2,Gadget\n")

	c, _ := newTestCoordinator(t, dir)
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)
	approvePlan(t, c, id)

	stats, err := c.Construct(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.NodesByLabel["Product"])
	assert.Equal(t, int64(1), stats.Skipped.RowsByLabel["Product"])
}

func TestConstructCountsSkippedEdges(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "products.csv", "product_id,name,supplier_id\np1,Widget,s1\np2,Gadget,s404\n")
	writeInput(t, dir, "suppliers.csv", "supplier_id,name\ns1,Acme\n")

	c, _ := newTestCoordinator(t, dir)
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)
	approvePlan(t, c, id)

	stats, err := c.Construct(context.Background(), id)
	require.NoError(t, err)

	// p2 references a supplier that does not exist: the edge is skipped and
	// counted, the rest of the batch still lands.
	assert.Equal(t, int64(1), stats.RelationshipsByLabel["HAS_SUPPLIER"])
	assert.Equal(t, int64(1), stats.Skipped.EdgesByLabel["HAS_SUPPLIER"])
}

func TestConstructBackendFailureLeavesSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	c, mock := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)
	approvePlan(t, c, id)

	mock.FailOn = "UpsertNodes"

	_, err := c.Construct(ctx, id)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindBackend))

	sess, err := c.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepPlanApproved, sess.Step)
	assert.Nil(t, sess.Statistics)

	// The failure is transient: the retry succeeds.
	mock.FailOn = ""
	_, err = c.Construct(ctx, id)
	require.NoError(t, err)
}

func TestConstructTwiceRejected(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)
	approveGoal(t, c, id)
	approveAllFiles(t, c, id)
	approvePlan(t, c, id)

	_, err := c.Construct(ctx, id)
	require.NoError(t, err)

	_, err = c.Construct(ctx, id)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
}

func TestMarkFailedIsTerminal(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t, supplyChainDir(t))
	id := createSession(t, c)

	require.NoError(t, c.MarkFailed(ctx, id, assert.AnError))

	sess, err := c.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepFailed, sess.Step)

	_, err = c.SetPerceivedGoal(ctx, id, testGoal, "domain")
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
}

func TestExpireIdleSessionsSweeps(t *testing.T) {
	ctx := context.Background()

	var cfg model.WorkflowConfig
	cfg.SessionTTL = "1h"

	store := session.NewMemoryStore(time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	c := New(store, proposer.NewStatic(), graphdb.NewMockClient(), cfg)

	stale := createSession(t, c)
	now = now.Add(2 * time.Hour)
	fresh := createSession(t, c)

	swept, err := c.ExpireIdleSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	_, err = c.Session(ctx, stale)
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
	_, err = c.Session(ctx, fresh)
	assert.NoError(t, err)
}

func TestStatusReportsHealth(t *testing.T) {
	ctx := context.Background()
	c, mock := newTestCoordinator(t, supplyChainDir(t))
	createSession(t, c)

	h := c.Status(ctx)
	assert.True(t, h.Healthy())
	assert.Equal(t, 1, h.ActiveSessions)

	mock.FailOn = "Ping"
	h = c.Status(ctx)
	assert.False(t, h.Healthy())
}

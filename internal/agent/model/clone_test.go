package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCloneIsDeep(t *testing.T) {
	orig := &Session{
		ID:   "s1",
		Step: StepPlanApproved,
		Goal: &Goal{Description: "Build a product graph", GraphType: GraphTypeDomain, Status: StatusApproved},
		Candidates: []FileCandidate{
			{Path: "products.csv", Kind: FileStructured, Columns: []string{"product_id", "name"}},
		},
		ApprovedFiles: &ApprovedFileSet{Files: []FileCandidate{{Path: "products.csv"}}},
		Plan: &ConstructionPlan{
			Status: PlanApproved,
			Nodes: []NodeType{
				{Label: "Product", KeyProperty: "product_id", Properties: []string{"name"}},
			},
			Relationships: []RelationshipType{
				{Label: "HAS_SUPPLIER", From: "Product", To: "Supplier"},
			},
		},
		Statistics: &GraphStatistics{
			NodesByLabel: map[string]int64{"Product": 2},
			Skipped:      SkipCounts{RowsByLabel: map[string]int64{"Product": 1}},
		},
		History: []Transition{{From: StepCreated, To: StepIntentCaptured}},
	}

	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp.Goal.Status = StatusRejected
	cp.Candidates[0].Columns[0] = "mutated"
	cp.ApprovedFiles.Files[0].Path = "mutated.csv"
	cp.Plan.Status = PlanPerceived
	cp.Plan.Nodes[0].Label = "Mutated"
	cp.Plan.Nodes[0].Properties[0] = "mutated"
	cp.Plan.Relationships = nil
	cp.Statistics.NodesByLabel["Product"] = 99
	cp.Statistics.Skipped.RowsByLabel["Product"] = 99
	cp.History[0].To = StepFailed

	assert.Equal(t, StatusApproved, orig.Goal.Status)
	assert.Equal(t, "product_id", orig.Candidates[0].Columns[0])
	assert.Equal(t, "products.csv", orig.ApprovedFiles.Files[0].Path)
	assert.Equal(t, PlanApproved, orig.Plan.Status)
	assert.Equal(t, "Product", orig.Plan.Nodes[0].Label)
	assert.Equal(t, "name", orig.Plan.Nodes[0].Properties[0])
	assert.Len(t, orig.Plan.Relationships, 1)
	assert.Equal(t, int64(2), orig.Statistics.NodesByLabel["Product"])
	assert.Equal(t, int64(1), orig.Statistics.Skipped.RowsByLabel["Product"])
	assert.Equal(t, StepIntentCaptured, orig.History[0].To)
}

func TestCloneNilReceivers(t *testing.T) {
	assert.Nil(t, (*Session)(nil).Clone())
	assert.Nil(t, (*ConstructionPlan)(nil).Clone())
	assert.Nil(t, (*GraphStatistics)(nil).Clone())
}

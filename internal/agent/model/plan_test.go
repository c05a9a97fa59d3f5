package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/agentic-kg-poc/server/internal/core/error"
)

func productPlan() *ConstructionPlan {
	return &ConstructionPlan{
		Status: PlanPerceived,
		Nodes: []NodeType{
			{Label: "Product", SourceFile: "products.csv", KeyProperty: "product_id", Properties: []string{"name"}},
			{Label: "Supplier", SourceFile: "suppliers.csv", KeyProperty: "supplier_id", Properties: []string{"name"}},
		},
		Relationships: []RelationshipType{
			{Label: "HAS_SUPPLIER", From: "Product", To: "Supplier", FromProperty: "supplier_id", ToProperty: "supplier_id"},
		},
	}
}

func TestPlanValidate(t *testing.T) {
	t.Run("valid plan passes", func(t *testing.T) {
		assert.NoError(t, productPlan().Validate())
	})

	t.Run("empty plan rejected", func(t *testing.T) {
		err := (&ConstructionPlan{}).Validate()
		require.Error(t, err)
		assert.True(t, errx.IsKind(err, errx.KindValidation))
	})

	t.Run("node without key property rejected", func(t *testing.T) {
		p := productPlan()
		p.Nodes[0].KeyProperty = ""
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Product")
	})

	t.Run("undeclared target listed as dangling", func(t *testing.T) {
		p := productPlan()
		p.Relationships = append(p.Relationships, RelationshipType{
			Label: "CONTAINS", From: "Product", To: "Widget",
		})
		err := p.Validate()
		require.Error(t, err)
		details := errx.DetailsOf(err)
		require.Len(t, details, 1)
		assert.Contains(t, details[0], "Widget")
	})

	t.Run("every dangling endpoint is listed", func(t *testing.T) {
		p := productPlan()
		p.Relationships = []RelationshipType{
			{Label: "CONTAINS", From: "Product", To: "Widget"},
			{Label: "MADE_BY", From: "Gizmo", To: "Supplier"},
			{Label: "SHIPS", From: "Depot", To: "Port"},
		}
		err := p.Validate()
		require.Error(t, err)
		details := errx.DetailsOf(err)
		assert.Len(t, details, 4)
	})
}

func TestPlanNodeTypeLookup(t *testing.T) {
	p := productPlan()

	n, ok := p.NodeType("Supplier")
	require.True(t, ok)
	assert.Equal(t, "supplier_id", n.KeyProperty)

	_, ok = p.NodeType("Widget")
	assert.False(t, ok)
}

package model

import (
	"fmt"

	errx "github.com/agentic-kg-poc/server/internal/core/error"
)

// PlanStatus tracks a construction plan through the approval gate.
type PlanStatus string

const (
	PlanPerceived PlanStatus = "perceived"
	PlanApproved  PlanStatus = "approved"
)

// Cardinality describes the expected multiplicity of a relationship type.
type Cardinality string

const (
	OneToOne   Cardinality = "one_to_one"
	OneToMany  Cardinality = "one_to_many"
	ManyToMany Cardinality = "many_to_many"
)

// NodeType declares one node label to materialise: where its rows come from,
// which property uniquely keys a node, and which extra properties to carry.
type NodeType struct {
	Label       string   `json:"label"`
	SourceFile  string   `json:"source_file"`
	KeyProperty string   `json:"key_property"`
	Properties  []string `json:"properties,omitempty"`
}

// RelationshipType declares one edge label between two node types. Edges are
// created by joining FromProperty on source nodes against ToProperty on
// target nodes; whichever side carries the foreign-key column is the side
// whose rows determine how many edges are expected.
type RelationshipType struct {
	Label        string      `json:"label"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	FromProperty string      `json:"from_property"`
	ToProperty   string      `json:"to_property"`
	Cardinality  Cardinality `json:"cardinality,omitempty"`
}

// ConstructionPlan is the schema-stage output: the full set of node and
// relationship types to build. Immutable once approved.
type ConstructionPlan struct {
	Nodes         []NodeType         `json:"nodes"`
	Relationships []RelationshipType `json:"relationships"`
	Status        PlanStatus         `json:"status"`
	Reasoning     string             `json:"reasoning,omitempty"`
}

// Validate checks the endpoint-reference invariant: every relationship's
// From and To must name a declared node type. The returned error lists
// every dangling endpoint found, not just the first.
func (p *ConstructionPlan) Validate() error {
	if len(p.Nodes) == 0 {
		return errx.Validation("invalid construction plan", "plan declares no node types")
	}

	declared := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.Label == "" {
			return errx.Validation("invalid construction plan", "node type with empty label")
		}
		if n.KeyProperty == "" {
			return errx.Validation("invalid construction plan",
				fmt.Sprintf("node type %s has no key property", n.Label))
		}
		declared[n.Label] = true
	}

	var dangling []string
	for _, r := range p.Relationships {
		if !declared[r.From] {
			dangling = append(dangling, fmt.Sprintf("relationship %s references undeclared source node type %s", r.Label, r.From))
		}
		if !declared[r.To] {
			dangling = append(dangling, fmt.Sprintf("relationship %s references undeclared target node type %s", r.Label, r.To))
		}
	}
	if len(dangling) > 0 {
		return errx.Validation("invalid construction plan", dangling...)
	}
	return nil
}

// NodeType returns the declared node type for a label, if present.
func (p *ConstructionPlan) NodeType(label string) (NodeType, bool) {
	for _, n := range p.Nodes {
		if n.Label == label {
			return n, true
		}
	}
	return NodeType{}, false
}

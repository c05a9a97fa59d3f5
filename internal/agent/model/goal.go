package model

import (
	"fmt"
	"strings"

	errx "github.com/agentic-kg-poc/server/internal/core/error"
)

// GraphType tags the kind of knowledge graph a goal asks for. The set is
// closed; anything else is rejected at the intent stage.
type GraphType string

const (
	GraphTypeDomain    GraphType = "domain"
	GraphTypeSemantic  GraphType = "semantic"
	GraphTypeKnowledge GraphType = "knowledge"
	GraphTypeLexical   GraphType = "lexical"
	GraphTypeSubject   GraphType = "subject"
)

// ValidGraphTypes lists every accepted graph type tag.
var ValidGraphTypes = []GraphType{
	GraphTypeDomain,
	GraphTypeSemantic,
	GraphTypeKnowledge,
	GraphTypeLexical,
	GraphTypeSubject,
}

// GoalStatus tracks a goal through the approval gate.
type GoalStatus string

const (
	StatusPerceived GoalStatus = "perceived"
	StatusApproved  GoalStatus = "approved"
	StatusRejected  GoalStatus = "rejected"
)

const (
	goalMinLength = 10
	goalMaxLength = 1000
)

// Goal is the structured outcome of the intent stage. A goal transitions
// perceived -> approved only through explicit confirmation and is immutable
// afterwards within the same session.
type Goal struct {
	Description string     `json:"description"`
	GraphType   GraphType  `json:"graph_type"`
	Status      GoalStatus `json:"status"`
}

// NewPerceivedGoal validates the raw inputs and returns a perceived goal.
// On failure the returned error names the specific violated rule.
func NewPerceivedGoal(description string, graphType string) (*Goal, error) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return nil, errx.Validation("invalid goal", "description must not be empty or whitespace-only")
	}
	if len(desc) < goalMinLength {
		return nil, errx.Validation("invalid goal",
			fmt.Sprintf("description too short: %d characters, minimum is %d", len(desc), goalMinLength))
	}
	if len(desc) > goalMaxLength {
		return nil, errx.Validation("invalid goal",
			fmt.Sprintf("description too long: %d characters, maximum is %d", len(desc), goalMaxLength))
	}

	gt := GraphType(strings.ToLower(strings.TrimSpace(graphType)))
	if !gt.Valid() {
		return nil, errx.Validation("invalid goal",
			fmt.Sprintf("unknown graph type %q, must be one of: %s", graphType, graphTypeList()))
	}

	return &Goal{
		Description: desc,
		GraphType:   gt,
		Status:      StatusPerceived,
	}, nil
}

// Valid reports whether the graph type belongs to the closed set.
func (g GraphType) Valid() bool {
	for _, t := range ValidGraphTypes {
		if g == t {
			return true
		}
	}
	return false
}

func graphTypeList() string {
	parts := make([]string, len(ValidGraphTypes))
	for i, t := range ValidGraphTypes {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

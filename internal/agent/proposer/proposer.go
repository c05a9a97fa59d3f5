// Package proposer abstracts the text-analysis collaborator that turns free
// text into structured stage candidates. The workflow core treats it as an
// opaque, possibly-nondeterministic oracle: Gemini in live runs, the static
// implementation for batch mode and tests.
package proposer

import (
	"context"

	"github.com/agentic-kg-poc/server/internal/agent/model"
)

// Task selects what kind of suggestion is being asked for.
type Task string

const (
	// TaskRankFiles asks for candidate files ranked by relevance to the goal.
	TaskRankFiles Task = "rank_files"
	// TaskProposeEntities asks for extractable entity node types from
	// unstructured files.
	TaskProposeEntities Task = "propose_entities"
)

// Request carries everything a proposer may need for one suggestion.
// Fields irrelevant to the task are left nil.
type Request struct {
	Task       Task
	Goal       *model.Goal
	Candidates []model.FileCandidate
}

// Suggestion is the structured outcome of one propose call.
type Suggestion struct {
	// RankedFiles is set for TaskRankFiles, most relevant first.
	RankedFiles []model.FileSuggestion
	// EntityNodes is set for TaskProposeEntities: one node type per
	// extractable entity kind found in the unstructured inputs.
	EntityNodes []model.NodeType
	// EntityRelationships links proposed entity node types, when the
	// proposer can infer any.
	EntityRelationships []model.RelationshipType
	// Reasoning is a short free-text justification for human review.
	Reasoning string
}

// Proposer is the single capability interface consumed by the selection and
// schema stages. Implementations must respect ctx cancellation.
type Proposer interface {
	Propose(ctx context.Context, req Request) (*Suggestion, error)
}

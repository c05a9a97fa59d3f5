package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	"github.com/agentic-kg-poc/server/internal/agent/proposer"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	"github.com/agentic-kg-poc/server/internal/files"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// ProposePlan derives a perceived construction plan from the approved file
// set. Structured files map deterministically: one node type per file, key
// property taken from the header, relationships from foreign-key columns
// that match another node type's key. Unstructured files go through the
// proposer for entity extraction. Re-proposing is allowed until the plan
// is approved; each call replaces the previous perceived plan.
func (c *Coordinator) ProposePlan(ctx context.Context, id string) (*model.ConstructionPlan, error) {
	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireReached(sess, model.StepFilesApproved, "propose plan"); err != nil {
		return nil, err
	}
	if err := requireBefore(sess, model.StepPlanApproved, "propose plan"); err != nil {
		return nil, err
	}

	plan := &model.ConstructionPlan{Status: model.PlanPerceived}

	var unstructured []model.FileCandidate
	for _, f := range sess.ApprovedFiles.Files {
		switch f.Kind {
		case model.FileStructured:
			plan.Nodes = append(plan.Nodes, deriveNodeType(f))
		case model.FileUnstructured:
			unstructured = append(unstructured, f)
		}
	}
	plan.Relationships = deriveRelationships(plan.Nodes)

	var reasons []string
	if len(plan.Nodes) > 0 {
		reasons = append(reasons, fmt.Sprintf("derived %d node types and %d relationship types from structured file headers",
			len(plan.Nodes), len(plan.Relationships)))
	}

	if len(unstructured) > 0 {
		suggestion, err := c.proposer.Propose(ctx, proposer.Request{
			Task:       proposer.TaskProposeEntities,
			Goal:       sess.Goal,
			Candidates: unstructured,
		})
		if err != nil {
			// Nothing is persisted; the session keeps its pre-call plan.
			return nil, errx.Wrap(errx.KindBackend, "entity proposal failed", err)
		}
		declared := make(map[string]bool, len(plan.Nodes))
		for _, n := range plan.Nodes {
			declared[n.Label] = true
		}
		for _, n := range suggestion.EntityNodes {
			if declared[n.Label] {
				logx.Warn().Str("label", n.Label).Msg("skipped entity node colliding with structured label")
				continue
			}
			declared[n.Label] = true
			plan.Nodes = append(plan.Nodes, n)
		}
		for _, r := range suggestion.EntityRelationships {
			if r.FromProperty == "" {
				r.FromProperty = keyPropertyOf(plan, r.From)
			}
			if r.ToProperty == "" {
				r.ToProperty = keyPropertyOf(plan, r.To)
			}
			plan.Relationships = append(plan.Relationships, r)
		}
		if suggestion.Reasoning != "" {
			reasons = append(reasons, suggestion.Reasoning)
		}
	}
	plan.Reasoning = strings.Join(reasons, "; ")

	if err := c.store.Update(ctx, id, func(sess *model.Session) error {
		if err := requireBefore(sess, model.StepPlanApproved, "propose plan"); err != nil {
			return err
		}
		sess.Plan = plan
		return nil
	}); err != nil {
		return nil, err
	}

	logx.Info().
		Str("session_id", id).
		Int("nodes", len(plan.Nodes)).
		Int("relationships", len(plan.Relationships)).
		Msg("plan proposed")
	return plan, nil
}

// ApprovePlan validates the endpoint-reference invariant and advances to
// PlanApproved. On failure the error lists every dangling endpoint and the
// stored plan stays perceived.
func (c *Coordinator) ApprovePlan(ctx context.Context, id string) error {
	return c.store.Update(ctx, id, func(sess *model.Session) error {
		if err := requireReached(sess, model.StepFilesApproved, "approve plan"); err != nil {
			return err
		}
		if err := requireBefore(sess, model.StepPlanApproved, "approve plan"); err != nil {
			return err
		}
		if sess.Plan == nil {
			return errx.InvalidState("cannot approve plan: no plan has been proposed yet")
		}
		if err := sess.Plan.Validate(); err != nil {
			return err
		}
		sess.Plan.Status = model.PlanApproved
		sess.Advance(model.StepPlanApproved, timeNow())
		logx.Info().Str("session_id", id).Msg("plan approved")
		return nil
	})
}

// Plan returns the session's current construction plan regardless of status.
func (c *Coordinator) Plan(ctx context.Context, id string) (*model.ConstructionPlan, error) {
	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Plan == nil {
		return nil, errx.NotFound("no plan has been proposed for this session")
	}
	return sess.Plan, nil
}

// deriveNodeType maps one structured file to one node type: the label from
// the file name, the key from the first identifier-like column, the rest of
// the header as plain properties.
func deriveNodeType(f model.FileCandidate) model.NodeType {
	key := files.InferKeyProperty(f.Columns)
	var props []string
	for _, col := range f.Columns {
		if col != key {
			props = append(props, col)
		}
	}
	return model.NodeType{
		Label:       files.InferLabel(f.Path),
		SourceFile:  f.Path,
		KeyProperty: key,
		Properties:  props,
	}
}

// deriveRelationships detects foreign keys between structured node types: a
// non-key column on one node type that equals another node type's key
// property yields an edge from the referencing side to the referenced side.
func deriveRelationships(nodes []model.NodeType) []model.RelationshipType {
	byKey := make(map[string][]model.NodeType)
	for _, n := range nodes {
		byKey[n.KeyProperty] = append(byKey[n.KeyProperty], n)
	}

	var rels []model.RelationshipType
	for _, from := range nodes {
		for _, col := range from.Properties {
			for _, to := range byKey[col] {
				if to.Label == from.Label {
					continue
				}
				rels = append(rels, model.RelationshipType{
					Label:        relationshipLabel(to.Label),
					From:         from.Label,
					To:           to.Label,
					FromProperty: col,
					ToProperty:   to.KeyProperty,
					Cardinality:  model.OneToMany,
				})
			}
		}
	}
	return rels
}

// relationshipLabel names a foreign-key edge after its target: "HAS_SUPPLIER".
func relationshipLabel(target string) string {
	var b strings.Builder
	b.WriteString("HAS_")
	for i, r := range target {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func keyPropertyOf(plan *model.ConstructionPlan, label string) string {
	if n, ok := plan.NodeType(label); ok {
		return n.KeyProperty
	}
	return ""
}

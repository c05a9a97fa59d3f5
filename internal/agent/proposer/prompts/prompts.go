// Package prompts renders the proposer system prompts through the Eino
// prompt component so prompt callbacks fire for observability.
package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/agentic-kg-poc/server/internal/agent/model"
)

//go:embed template/file_ranking.txt
var fileRankingPrompt string

//go:embed template/schema_proposal.txt
var schemaProposalPrompt string

// RenderFileRanking renders the file ranking system prompt for a goal and
// its candidate catalog.
func RenderFileRanking(ctx context.Context, goal *model.Goal, candidates []model.FileCandidate) (string, error) {
	if goal == nil {
		return "", fmt.Errorf("goal is nil")
	}
	return render(ctx, fileRankingPrompt, goal, candidates)
}

// RenderSchemaProposal renders the entity proposal system prompt for the
// approved unstructured files.
func RenderSchemaProposal(ctx context.Context, goal *model.Goal, candidates []model.FileCandidate) (string, error) {
	if goal == nil {
		return "", fmt.Errorf("goal is nil")
	}
	return render(ctx, schemaProposalPrompt, goal, candidates)
}

func render(ctx context.Context, template string, goal *model.Goal, candidates []model.FileCandidate) (string, error) {
	// Replace known tokens only; the templates carry literal JSON braces
	// that must survive untouched.
	content := strings.NewReplacer(
		"{graph_type}", string(goal.GraphType),
		"{goal}", goal.Description,
		"{catalog}", renderCatalog(candidates),
	).Replace(template)

	// Wrap via the Eino prompt component with a messages placeholder so
	// prompt callbacks are emitted.
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("proposer prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("proposer prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}

func renderCatalog(candidates []model.FileCandidate) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, c.Path, c.Kind)
		if len(c.Columns) > 0 {
			fmt.Fprintf(&b, "   columns: %s\n", strings.Join(c.Columns, ", "))
		}
		if c.Sample != "" {
			fmt.Fprintf(&b, "   sample:\n%s\n", indent(c.Sample, "     "))
		}
	}
	if b.Len() == 0 {
		return "(no files available)"
	}
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

package proposer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	"github.com/agentic-kg-poc/server/internal/files"
)

// Static is a deterministic Proposer used when no model is configured and
// by the test suite. File ranking is keyword overlap between the goal and
// each candidate; entity proposal derives one node type per unstructured
// file from its name.
type Static struct{}

// NewStatic returns the deterministic proposer.
func NewStatic() *Static {
	return &Static{}
}

func (s *Static) Propose(ctx context.Context, req Request) (*Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch req.Task {
	case TaskRankFiles:
		return s.rankFiles(req)
	case TaskProposeEntities:
		return s.proposeEntities(req)
	default:
		return nil, errx.Validation("unknown proposer task", string(req.Task))
	}
}

func (s *Static) rankFiles(req Request) (*Suggestion, error) {
	if req.Goal == nil {
		return nil, errx.Validation("file ranking requires a goal")
	}

	keywords := tokenize(req.Goal.Description + " " + string(req.Goal.GraphType))

	ranked := make([]model.FileSuggestion, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		haystack := tokenize(c.Path + " " + c.Sample + " " + strings.Join(c.Columns, " "))
		var matched []string
		for kw := range keywords {
			if haystack[kw] {
				matched = append(matched, kw)
			}
		}
		sort.Strings(matched)

		score := 0.0
		if len(keywords) > 0 {
			score = float64(len(matched)) / float64(len(keywords))
		}
		reason := "no keyword overlap with goal"
		if len(matched) > 0 {
			reason = fmt.Sprintf("matches goal keywords: %s", strings.Join(matched, ", "))
		}
		ranked = append(ranked, model.FileSuggestion{
			FileCandidate: c,
			Score:         score,
			Reason:        reason,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return &Suggestion{
		RankedFiles: ranked,
		Reasoning:   "keyword-overlap ranking",
	}, nil
}

func (s *Static) proposeEntities(req Request) (*Suggestion, error) {
	var nodes []model.NodeType
	for _, c := range req.Candidates {
		if c.Kind != model.FileUnstructured {
			continue
		}
		nodes = append(nodes, model.NodeType{
			Label:       files.InferLabel(c.Path),
			SourceFile:  c.Path,
			KeyProperty: "name",
			Properties:  []string{"text", "source"},
		})
	}
	return &Suggestion{
		EntityNodes: nodes,
		Reasoning:   "one extractable entity type per unstructured file",
	}, nil
}

// tokenize lowercases and splits text into words of three or more letters.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	}) {
		if len(w) >= 3 {
			tokens[w] = true
		}
	}
	return tokens
}

var _ Proposer = (*Static)(nil)

package workflow

import (
	"context"
	"fmt"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	"github.com/agentic-kg-poc/server/internal/agent/proposer"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	"github.com/agentic-kg-poc/server/internal/files"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// SuggestFiles discovers the input catalog, records it as the session's
// candidate set and returns the candidates ranked by relevance to the
// approved goal. Approved state is not mutated; re-suggesting is allowed
// until files are approved.
func (c *Coordinator) SuggestFiles(ctx context.Context, id string) ([]model.FileSuggestion, error) {
	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireReached(sess, model.StepIntentCaptured, "suggest files"); err != nil {
		return nil, err
	}
	if err := requireBefore(sess, model.StepFilesApproved, "suggest files"); err != nil {
		return nil, err
	}

	candidates, err := files.Discover(c.cfg.Data.InputDir)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errx.Validation("no input files found",
			fmt.Sprintf("directory %s contains no CSV, Markdown or text files", c.cfg.Data.InputDir))
	}

	suggestion, err := c.proposer.Propose(ctx, proposer.Request{
		Task:       proposer.TaskRankFiles,
		Goal:       sess.Goal,
		Candidates: candidates,
	})
	if err != nil {
		return nil, errx.Wrap(errx.KindBackend, "file ranking failed", err)
	}

	if err := c.store.Update(ctx, id, func(sess *model.Session) error {
		if err := requireBefore(sess, model.StepFilesApproved, "suggest files"); err != nil {
			return err
		}
		sess.Candidates = candidates
		return nil
	}); err != nil {
		return nil, err
	}

	logx.Info().
		Str("session_id", id).
		Int("candidates", len(candidates)).
		Msg("files suggested")
	return suggestion.RankedFiles, nil
}

// ApproveFiles stores the approved subset of the candidate set and advances
// to FilesApproved. Every unknown path is named in the validation error and
// the recorded approved set stays unchanged on failure.
func (c *Coordinator) ApproveFiles(ctx context.Context, id string, paths []string) error {
	if len(paths) == 0 {
		return errx.Validation("invalid file selection", "at least one file must be selected")
	}

	return c.store.Update(ctx, id, func(sess *model.Session) error {
		if err := requireReached(sess, model.StepIntentCaptured, "approve files"); err != nil {
			return err
		}
		if err := requireBefore(sess, model.StepFilesApproved, "approve files"); err != nil {
			return err
		}
		if len(sess.Candidates) == 0 {
			return errx.InvalidState("cannot approve files: no files have been suggested yet")
		}

		var unknown []string
		var selected []model.FileCandidate
		seen := make(map[string]bool, len(paths))
		for _, p := range paths {
			if seen[p] {
				continue
			}
			seen[p] = true
			cand, ok := sess.Candidate(p)
			if !ok {
				unknown = append(unknown, fmt.Sprintf("path %s was never suggested", p))
				continue
			}
			selected = append(selected, cand)
		}
		if len(unknown) > 0 {
			return errx.Validation("invalid file selection", unknown...)
		}

		sess.ApprovedFiles = &model.ApprovedFileSet{Files: selected}
		sess.Advance(model.StepFilesApproved, timeNow())
		logx.Info().
			Str("session_id", id).
			Int("approved", len(selected)).
			Msg("files approved")
		return nil
	})
}

package workflow

import (
	"context"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// SetPerceivedGoal validates and records the goal in perceived status.
// Refinement is allowed any number of times until files are approved;
// each call replaces the previous perceived or rejected goal.
func (c *Coordinator) SetPerceivedGoal(ctx context.Context, id, description, graphType string) (*model.Goal, error) {
	goal, err := model.NewPerceivedGoal(description, graphType)
	if err != nil {
		return nil, err
	}

	err = c.store.Update(ctx, id, func(sess *model.Session) error {
		if sess.Step == model.StepFailed {
			return errx.InvalidState("cannot set goal: session has failed")
		}
		if err := requireBefore(sess, model.StepIntentCaptured, "set goal"); err != nil {
			return err
		}
		if sess.Goal != nil && sess.Goal.Status == model.StatusApproved {
			return errx.InvalidState("cannot set goal: an approved goal already exists")
		}
		sess.Goal = goal
		sess.Touch(timeNow())
		return nil
	})
	if err != nil {
		return nil, err
	}

	logx.Info().
		Str("session_id", id).
		Str("graph_type", string(goal.GraphType)).
		Msg("goal perceived")
	return goal, nil
}

// ApproveGoal confirms the perceived goal and advances to IntentCaptured.
func (c *Coordinator) ApproveGoal(ctx context.Context, id string) error {
	return c.store.Update(ctx, id, func(sess *model.Session) error {
		if sess.Step == model.StepFailed {
			return errx.InvalidState("cannot approve goal: session has failed")
		}
		if sess.Goal == nil {
			return errx.InvalidState("cannot approve goal: no perceived goal exists")
		}
		if sess.Goal.Status == model.StatusApproved {
			return errx.InvalidState("cannot approve goal: goal is already approved")
		}
		if sess.Goal.Status == model.StatusRejected {
			return errx.InvalidState("cannot approve goal: goal was rejected, set a new goal first")
		}
		sess.Goal.Status = model.StatusApproved
		sess.Advance(model.StepIntentCaptured, timeNow())
		logx.Info().Str("session_id", id).Msg("goal approved")
		return nil
	})
}

// RejectGoal marks the perceived goal rejected. The session stays at its
// current step; a new goal must be set before approval can succeed.
func (c *Coordinator) RejectGoal(ctx context.Context, id string) error {
	return c.store.Update(ctx, id, func(sess *model.Session) error {
		if sess.Goal == nil {
			return errx.InvalidState("cannot reject goal: no perceived goal exists")
		}
		if sess.Goal.Status == model.StatusApproved {
			return errx.InvalidState("cannot reject goal: goal is already approved")
		}
		sess.Goal.Status = model.StatusRejected
		logx.Info().Str("session_id", id).Msg("goal rejected")
		return nil
	})
}

// Goal returns the session's current goal regardless of status.
func (c *Coordinator) Goal(ctx context.Context, id string) (*model.Goal, error) {
	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Goal == nil {
		return nil, errx.NotFound("no goal has been set for this session")
	}
	return sess.Goal, nil
}

// Package workflow implements the approval-gated pipeline that drives a
// session from Created to Constructed: intent capture, file selection,
// schema proposal and graph construction. Every stage operation checks its
// prerequisite approval and rejects out-of-order calls, so stage state
// lives in one place instead of scattered flags.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	"github.com/agentic-kg-poc/server/internal/agent/proposer"
	"github.com/agentic-kg-poc/server/internal/agent/session"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	"github.com/agentic-kg-poc/server/internal/graphdb"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// timeNow is the workflow clock, a variable so tests can freeze it.
var timeNow = func() time.Time { return time.Now().UTC() }

// Coordinator owns the workflow state machine. All session mutation goes
// through the store's Update, so a failed stage call leaves the session
// provably unchanged.
type Coordinator struct {
	store    session.Store
	proposer proposer.Proposer
	graph    graphdb.Client
	cfg      model.WorkflowConfig
}

// New wires the coordinator with its three collaborators.
func New(store session.Store, prop proposer.Proposer, graph graphdb.Client, cfg model.WorkflowConfig) *Coordinator {
	return &Coordinator{
		store:    store,
		proposer: prop,
		graph:    graph,
		cfg:      cfg,
	}
}

// WithConfig returns a coordinator sharing the same collaborators under a
// replaced configuration, for command-line overrides of the data directories.
func (c *Coordinator) WithConfig(cfg model.WorkflowConfig) *Coordinator {
	clone := *c
	clone.cfg = cfg
	return &clone
}

// CreateSession opens a fresh session for the owner.
func (c *Coordinator) CreateSession(ctx context.Context, owner string) (*model.Session, error) {
	return c.store.Create(ctx, owner)
}

// Session returns a snapshot of the session, refreshing its activity.
func (c *Coordinator) Session(ctx context.Context, id string) (*model.Session, error) {
	return c.store.Get(ctx, id)
}

// CloseSession removes the session and its state.
func (c *Coordinator) CloseSession(ctx context.Context, id string) error {
	return c.store.Close(ctx, id)
}

// MarkFailed moves a session to the terminal Failed step after an
// unrecoverable error. Recoverable stage failures never call this; they
// leave the session at its last good step so the caller can retry.
func (c *Coordinator) MarkFailed(ctx context.Context, id string, cause error) error {
	return c.store.Update(ctx, id, func(sess *model.Session) error {
		logx.Error().Err(cause).Str("session_id", id).Str("step", string(sess.Step)).Msg("session failed")
		sess.Advance(model.StepFailed, timeNow())
		return nil
	})
}

// requireReached gates a stage operation on its prerequisite approval.
func requireReached(sess *model.Session, prereq model.Step, op string) error {
	if sess.Step == model.StepFailed {
		return errx.InvalidState(fmt.Sprintf("cannot %s: session has failed", op))
	}
	if !sess.Step.Reached(prereq) {
		return errx.InvalidState(fmt.Sprintf("cannot %s: session is at step %s, requires %s", op, sess.Step, prereq))
	}
	return nil
}

// requireBefore rejects re-running an already approved stage.
func requireBefore(sess *model.Session, limit model.Step, op string) error {
	if sess.Step.Reached(limit) {
		return errx.InvalidState(fmt.Sprintf("cannot %s: session already reached step %s", op, limit))
	}
	return nil
}

package model

import (
	"time"
)

// Step is the workflow position of a session. Each step past Created is
// reached only when the corresponding stage output has been approved.
type Step string

const (
	StepCreated        Step = "created"
	StepIntentCaptured Step = "intent_captured"
	StepFilesApproved  Step = "files_approved"
	StepPlanApproved   Step = "plan_approved"
	StepConstructed    Step = "constructed"
	StepFailed         Step = "failed"
)

// order maps each step to its position in the pipeline. Failed is terminal
// and sits outside the ordering.
var order = map[Step]int{
	StepCreated:        0,
	StepIntentCaptured: 1,
	StepFilesApproved:  2,
	StepPlanApproved:   3,
	StepConstructed:    4,
}

// Reached reports whether s is at or past the given step. Failed sessions
// have reached nothing.
func (s Step) Reached(other Step) bool {
	si, ok := order[s]
	if !ok {
		return false
	}
	oi, ok := order[other]
	if !ok {
		return false
	}
	return si >= oi
}

// Terminal reports whether no further stage may run.
func (s Step) Terminal() bool {
	return s == StepConstructed || s == StepFailed
}

// Transition is one recorded step change in a session's task history.
type Transition struct {
	From Step      `json:"from"`
	To   Step      `json:"to"`
	At   time.Time `json:"at"`
}

// Session holds the complete state of one end-to-end construction attempt.
// Owned by the session store; mutated only by the workflow coordinator.
type Session struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Step         Step      `json:"step"`

	Goal          *Goal             `json:"goal,omitempty"`
	Candidates    []FileCandidate   `json:"candidates,omitempty"`
	ApprovedFiles *ApprovedFileSet  `json:"approved_files,omitempty"`
	Plan          *ConstructionPlan `json:"plan,omitempty"`
	Statistics    *GraphStatistics  `json:"statistics,omitempty"`

	// History is the bounded, append-only record of past step transitions.
	History []Transition `json:"history,omitempty"`
}

// historyLimit bounds the task history so long-lived sessions stay small.
const historyLimit = 64

// Touch updates the last-activity timestamp.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// Advance moves the session to the given step and records the transition.
func (s *Session) Advance(to Step, now time.Time) {
	s.History = append(s.History, Transition{From: s.Step, To: to, At: now})
	if len(s.History) > historyLimit {
		s.History = s.History[len(s.History)-historyLimit:]
	}
	s.Step = to
	s.LastActivity = now
}

// IdleSince returns how long the session has been idle at the given instant.
func (s *Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}

// Candidate returns the candidate recorded for a path, if any.
func (s *Session) Candidate(path string) (FileCandidate, bool) {
	for _, c := range s.Candidates {
		if c.Path == path {
			return c, true
		}
	}
	return FileCandidate{}, false
}

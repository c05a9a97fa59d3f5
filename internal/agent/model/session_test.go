package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepReached(t *testing.T) {
	assert.True(t, StepPlanApproved.Reached(StepIntentCaptured))
	assert.True(t, StepCreated.Reached(StepCreated))
	assert.False(t, StepCreated.Reached(StepFilesApproved))
	assert.False(t, StepFailed.Reached(StepCreated))
}

func TestStepTerminal(t *testing.T) {
	assert.True(t, StepConstructed.Terminal())
	assert.True(t, StepFailed.Terminal())
	assert.False(t, StepPlanApproved.Terminal())
}

func TestSessionAdvanceRecordsHistory(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sess := &Session{Step: StepCreated, LastActivity: now}

	sess.Advance(StepIntentCaptured, now.Add(time.Minute))
	sess.Advance(StepFilesApproved, now.Add(2*time.Minute))

	assert.Equal(t, StepFilesApproved, sess.Step)
	assert.Len(t, sess.History, 2)
	assert.Equal(t, StepCreated, sess.History[0].From)
	assert.Equal(t, StepIntentCaptured, sess.History[0].To)
	assert.Equal(t, now.Add(2*time.Minute), sess.LastActivity)
}

func TestSessionHistoryBounded(t *testing.T) {
	sess := &Session{Step: StepCreated}
	for i := 0; i < historyLimit*2; i++ {
		sess.Advance(StepIntentCaptured, time.Now())
	}
	assert.Len(t, sess.History, historyLimit)
}

func TestSessionIdleSince(t *testing.T) {
	now := time.Now()
	sess := &Session{LastActivity: now.Add(-30 * time.Minute)}
	assert.Equal(t, 30*time.Minute, sess.IdleSince(now))
}

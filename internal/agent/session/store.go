// Package session owns workflow session state and its lifecycle. Sessions
// are mutated only through Update, which serializes access per session id
// so concurrent callers cannot lose updates.
package session

import (
	"context"
	"time"

	"github.com/agentic-kg-poc/server/internal/agent/model"
)

// Store is the session lifecycle contract. Get on an unknown or expired id
// returns a KindNotFound error; callers must not assume auto-creation.
type Store interface {
	// Create registers a new session for the owner and returns it.
	Create(ctx context.Context, owner string) (*model.Session, error)

	// Get returns a snapshot of the session and refreshes its activity.
	Get(ctx context.Context, id string) (*model.Session, error)

	// Update runs fn against the session under per-id serialization.
	// When fn returns an error the session is left provably unchanged.
	Update(ctx context.Context, id string, fn func(*model.Session) error) error

	// Touch refreshes the last-activity timestamp.
	Touch(ctx context.Context, id string) error

	// ExpireIdle closes sessions idle longer than maxIdle and reports how
	// many were closed.
	ExpireIdle(ctx context.Context, maxIdle time.Duration) (int, error)

	// Close removes the session. Closing an unknown id is a no-op.
	Close(ctx context.Context, id string) error

	// Active returns the number of live sessions.
	Active(ctx context.Context) (int, error)
}

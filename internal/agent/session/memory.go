package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

type memoryEntry struct {
	mu      sync.Mutex
	session model.Session
}

// MemoryStore keeps sessions in process memory with one lock per session,
// so independent sessions never contend and same-session callers are
// serialized. The default store for batch runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	maxIdle time.Duration

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

// NewMemoryStore creates an empty store. Sessions idle longer than maxIdle
// are treated as expired on access and by ExpireIdle sweeps.
func NewMemoryStore(maxIdle time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		maxIdle: maxIdle,
		Now:     time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, owner string) (*model.Session, error) {
	now := s.Now()
	sess := model.Session{
		ID:           uuid.NewString(),
		Owner:        owner,
		CreatedAt:    now,
		LastActivity: now,
		Step:         model.StepCreated,
	}

	s.mu.Lock()
	s.entries[sess.ID] = &memoryEntry{session: sess}
	s.mu.Unlock()

	logx.Info().Str("session_id", sess.ID).Str("owner", owner).Msg("session created")
	return sess.Clone(), nil
}

// lookup returns the live entry, removing it first when expired.
func (s *MemoryStore) lookup(id string) (*memoryEntry, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errx.NotFound(fmt.Sprintf("session %s", id))
	}

	entry.mu.Lock()
	expired := s.maxIdle > 0 && entry.session.IdleSince(s.Now()) > s.maxIdle
	entry.mu.Unlock()
	if expired {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
		logx.Info().Str("session_id", id).Msg("session expired")
		return nil, errx.NotFound(fmt.Sprintf("session %s expired", id))
	}
	return entry, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Session, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.session.Touch(s.Now())
	// Deep copy: callers must never hold pointers into stored state.
	return entry.session.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*model.Session) error) error {
	entry, err := s.lookup(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Work on a deep copy so a failed fn leaves the stored session
	// untouched, then commit another copy so pointers fn captured cannot
	// reach the stored state afterwards.
	working := entry.session.Clone()
	if err := fn(working); err != nil {
		return err
	}
	working.Touch(s.Now())
	entry.session = *working.Clone()
	return nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string) error {
	entry, err := s.lookup(id)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.session.Touch(s.Now())
	return nil
}

func (s *MemoryStore) ExpireIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	now := s.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for id, entry := range s.entries {
		entry.mu.Lock()
		if entry.session.IdleSince(now) > maxIdle {
			expired = append(expired, id)
		}
		entry.mu.Unlock()
	}
	for _, id := range expired {
		delete(s.entries, id)
	}
	if len(expired) > 0 {
		logx.Info().Int("count", len(expired)).Msg("expired idle sessions")
	}
	return len(expired), nil
}

func (s *MemoryStore) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		delete(s.entries, id)
		logx.Info().Str("session_id", id).Msg("session closed")
	}
	return nil
}

func (s *MemoryStore) Active(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

var _ Store = (*MemoryStore)(nil)

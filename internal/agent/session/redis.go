package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// RedisStore persists sessions as JSON values with a TTL that is refreshed
// on every touch, so idle expiry is enforced by Redis itself. It assumes
// the single-writer-per-session discipline of the workflow: one
// conversational actor drives one session at a time.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStore creates a store over an existing Redis client.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) sessionKey(id string) string {
	return fmt.Sprintf("workflow:session:%s", id)
}

func (s *RedisStore) Create(ctx context.Context, owner string) (*model.Session, error) {
	now := time.Now().UTC()
	sess := model.Session{
		ID:           uuid.NewString(),
		Owner:        owner,
		CreatedAt:    now,
		LastActivity: now,
		Step:         model.StepCreated,
	}
	if err := s.persist(ctx, &sess); err != nil {
		return nil, err
	}
	logx.Info().Str("session_id", sess.ID).Str("owner", owner).Msg("session created")
	return &sess, nil
}

func (s *RedisStore) load(ctx context.Context, id string) (*model.Session, error) {
	raw, err := s.rdb.Get(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		logx.Error().Err(err).Str("session_id", id).Msg("failed to unmarshal session")
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) persist(ctx context.Context, sess *model.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sess.ID).Msg("failed to marshal session")
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.sessionKey(sess.ID), b, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", sess.ID).Msg("failed to persist session")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Touch(time.Now().UTC())
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*model.Session) error) error {
	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		// Nothing persisted: the stored session is unchanged.
		return err
	}
	sess.Touch(time.Now().UTC())
	return s.persist(ctx, sess)
}

func (s *RedisStore) Touch(ctx context.Context, id string) error {
	key := s.sessionKey(id)
	ok, err := s.rdb.Expire(ctx, key, s.ttl).Result()
	if err != nil {
		return errx.WrapRedis(err)
	}
	if !ok {
		return errx.NotFound(fmt.Sprintf("session %s", id))
	}
	return nil
}

// ExpireIdle is a no-op for Redis: keys carry their own TTL.
func (s *RedisStore) ExpireIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	return 0, nil
}

func (s *RedisStore) Close(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.sessionKey(id)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	logx.Info().Str("session_id", id).Msg("session closed")
	return nil
}

func (s *RedisStore) Active(ctx context.Context) (int, error) {
	var count int
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.sessionKey("*"), 100).Result()
		if err != nil {
			return 0, errx.WrapRedis(err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

var _ Store = (*RedisStore)(nil)

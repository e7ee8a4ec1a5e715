package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	sessionKeyPrefix     = "triage:session:"
	sessionLockKeyPrefix = "triage:session-lock:"

	defaultLockTTL    = 10 * time.Second
	defaultLockWait   = 5 * time.Second
	lockPollInterval  = 20 * time.Millisecond
)

// ErrSessionBusy is returned when another writer holds a session's lock past
// the wait budget.
var ErrSessionBusy = errors.New("conversation: session is busy")

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStoreOptions tunes RedisStore. Zero values use defaults.
type RedisStoreOptions struct {
	// TTL is the sliding expiry applied on every save. Zero keeps sessions
	// until they are reset.
	TTL time.Duration
	// LockTTL bounds how long a crashed writer can block a session.
	LockTTL time.Duration
	// LockWait bounds how long Update waits for a busy session.
	LockWait time.Duration
}

// RedisStore keeps sessions in Redis so several API replicas share them.
// Update takes a per-session lock (SET NX with an owner token) so writers in
// different processes are serialized as well.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	local  *keyedMutex
	opts   RedisStoreOptions
}

// NewRedisStore wraps a Redis client.
func NewRedisStore(client *redis.Client, opts RedisStoreOptions) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if opts.TTL < 0 {
		opts.TTL = 0
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("triage.internal.conversation.sessions"),
		local:  newKeyedMutex(),
		opts:   opts,
	}
}

// Get loads the session or returns a fresh state when none is stored.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*State, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionIDRequired
	}
	ctx, span := s.tracer.Start(ctx, "conversation.session.get")
	defer span.End()

	st, err := s.load(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return st, nil
}

// Save overwrites the session and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, state *State) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionIDRequired
	}
	ctx, span := s.tracer.Start(ctx, "conversation.session.save")
	defer span.End()

	if err := s.save(ctx, sessionID, state); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Reset stores a fresh state for the session.
func (s *RedisStore) Reset(ctx context.Context, sessionID string) error {
	return s.Update(ctx, sessionID, func(st *State) error {
		st.Reset()
		return nil
	})
}

// Update runs fn on the stored session while holding the session lock.
func (s *RedisStore) Update(ctx context.Context, sessionID string, fn func(*State) error) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionIDRequired
	}
	ctx, span := s.tracer.Start(ctx, "conversation.session.update")
	defer span.End()
	span.SetAttributes(attribute.String("triage.session_id", sessionID))

	unlockLocal := s.local.Lock(sessionID)
	defer unlockLocal()

	release, err := s.acquire(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer release()

	st, err := s.load(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	if err := s.save(ctx, sessionID, st); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *RedisStore) acquire(ctx context.Context, sessionID string) (func(), error) {
	key := sessionLockKey(sessionID)
	token := uuid.NewString()
	deadline := time.Now().Add(s.opts.LockWait)

	for {
		ok, err := s.redis.SetNX(ctx, key, token, s.opts.LockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("conversation: acquire session lock: %w", err)
		}
		if ok {
			return func() {
				// Released with a fresh context so a cancelled request still frees the lock.
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseLockScript.Run(releaseCtx, s.redis, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrSessionBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (s *RedisStore) load(ctx context.Context, sessionID string) (*State, error) {
	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("conversation: load session: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("conversation: decode session: %w", err)
	}
	return st.Clone(), nil
}

func (s *RedisStore) save(ctx context.Context, sessionID string, st *State) error {
	data, err := json.Marshal(st.Clone())
	if err != nil {
		return fmt.Errorf("conversation: encode session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sessionID), data, s.opts.TTL).Err(); err != nil {
		return fmt.Errorf("conversation: persist session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func sessionLockKey(id string) string {
	return sessionLockKeyPrefix + id
}

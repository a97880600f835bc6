package watch

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/redis"
)

// maxStateRetries bounds the optimistic-write loop under contention between
// the api process (mark-read) and the poll worker (cycles).
const maxStateRetries = 5

// casScript swaps the state blob only when it still matches what the writer
// loaded. A missing key compares equal to the empty string so first writes go
// through the same path.
const casScript = `
local current = redis.call('GET', KEYS[1])
if current == false then
  current = ''
end
if current ~= ARGV[1] then
  return 0
end
if ARGV[3] == '0' then
  redis.call('SET', KEYS[1], ARGV[2])
else
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`

// Store persists notification state per scope. One scope exists per admin
// view; state must survive process restarts and poller pauses. Writers in
// different processes share a scope, so every mutation goes through Update,
// which re-applies fn against fresh state when another writer got in between.
type Store interface {
	Load(ctx context.Context, scope string) (*State, error)
	// Update loads the state, applies fn and persists the result only if no
	// concurrent writer changed the scope meanwhile. fn returning false means
	// nothing changed and no write happens; an error from fn aborts without
	// writing.
	Update(ctx context.Context, scope string, fn func(*State) (bool, error)) error
}

type stateClient interface {
	Get(ctx context.Context, key string) (string, error)
	Eval(ctx context.Context, script string, keys []string, args ...any) (any, error)
	WatchStateKey(scope string) string
}

type redisStore struct {
	client stateClient
	ttl    time.Duration
}

// NewRedisStore keeps notification state in Redis as JSON blobs with a
// refresh-on-write TTL.
func NewRedisStore(client stateClient, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Load(ctx context.Context, scope string) (*State, error) {
	raw, err := s.client.Get(ctx, s.client.WatchStateKey(scope))
	if redis.IsNil(err) {
		return NewState(), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeState(raw), nil
}

func (s *redisStore) Update(ctx context.Context, scope string, fn func(*State) (bool, error)) error {
	key := s.client.WatchStateKey(scope)

	for attempt := 0; attempt < maxStateRetries; attempt++ {
		raw, err := s.client.Get(ctx, key)
		if err != nil && !redis.IsNil(err) {
			return err
		}

		state := decodeState(raw)
		changed, err := fn(state)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		state.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(state)
		if err != nil {
			return err
		}

		swapped, err := s.compareAndSet(ctx, key, raw, string(payload))
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeDependency, "notification state contention exhausted retries")
}

func (s *redisStore) compareAndSet(ctx context.Context, key, previous, next string) (bool, error) {
	result, err := s.client.Eval(ctx, casScript, []string{key},
		previous, next, strconv.FormatInt(s.ttl.Milliseconds(), 10))
	if err != nil {
		return false, err
	}
	swapped, ok := result.(int64)
	return ok && swapped == 1, nil
}

// decodeState tolerates a missing or corrupt blob. A corrupt blob is
// unrecoverable; start over rather than wedge the poll loop.
func decodeState(raw string) *State {
	if raw == "" {
		return NewState()
	}
	state := NewState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return NewState()
	}
	if state.Seen == nil {
		state.Seen = make(map[uuid.UUID]time.Time)
	}
	return state
}

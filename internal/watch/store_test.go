package watch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
)

type fakeStateClient struct {
	values     map[string]string
	getErr     error
	beforeSwap func(*fakeStateClient)
	evals      int
}

func newFakeStateClient() *fakeStateClient {
	return &fakeStateClient{values: map[string]string{}}
}

func (f *fakeStateClient) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

// Eval mirrors the server-side compare-and-set: the blob is swapped only when
// it still matches what the caller loaded.
func (f *fakeStateClient) Eval(_ context.Context, _ string, keys []string, args ...any) (any, error) {
	f.evals++
	if f.beforeSwap != nil {
		f.beforeSwap(f)
	}
	previous, _ := args[0].(string)
	next, _ := args[1].(string)
	if f.values[keys[0]] != previous {
		return int64(0), nil
	}
	f.values[keys[0]] = next
	return int64(1), nil
}

func (f *fakeStateClient) WatchStateKey(scope string) string {
	return "obtrack:watch_state:" + scope
}

func (f *fakeStateClient) put(t *testing.T, scope string, state *State) {
	t.Helper()
	payload, err := json.Marshal(state)
	require.NoError(t, err)
	f.values[f.WatchStateKey(scope)] = string(payload)
}

func (f *fakeStateClient) state(t *testing.T, scope string) *State {
	t.Helper()
	raw, ok := f.values[f.WatchStateKey(scope)]
	require.True(t, ok)
	state := NewState()
	require.NoError(t, json.Unmarshal([]byte(raw), state))
	return state
}

func TestUpdateWritesFirstState(t *testing.T) {
	client := newFakeStateClient()
	store := NewRedisStore(client, time.Hour)
	commentID := uuid.New()
	at := time.Unix(100, 0).UTC()

	err := store.Update(context.Background(), "admin", func(state *State) (bool, error) {
		state.Observe(commentID, at)
		return true, nil
	})
	require.NoError(t, err)

	stored := client.state(t, "admin")
	assert.Equal(t, at, stored.Seen[commentID])
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestUpdateSkipsWriteWhenUnchanged(t *testing.T) {
	client := newFakeStateClient()
	store := NewRedisStore(client, time.Hour)

	err := store.Update(context.Background(), "admin", func(*State) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Zero(t, client.evals)
	assert.Empty(t, client.values)
}

func TestUpdateAbortsOnCallbackError(t *testing.T) {
	client := newFakeStateClient()
	store := NewRedisStore(client, time.Hour)
	wantErr := pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")

	err := store.Update(context.Background(), "admin", func(*State) (bool, error) {
		return false, wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.Zero(t, client.evals)
	assert.Empty(t, client.values)
}

func TestUpdateRetriesPastConcurrentWriter(t *testing.T) {
	commentA := uuid.New()
	commentB := uuid.New()
	readID := uuid.New()
	base := time.Unix(100, 0).UTC()

	seeded := NewState()
	seeded.Observe(commentA, base)
	seeded.Prepend(10, Notification{ID: readID, Kind: enums.ChangeKindNew, CommentID: commentA, CreatedAt: base})

	client := newFakeStateClient()
	client.put(t, "admin", seeded)
	store := NewRedisStore(client, time.Hour)

	// A poll cycle lands between this writer's load and its swap, recording
	// comment B. The stale swap must fail and the retry must keep B's entry.
	cycleID := uuid.New()
	client.beforeSwap = func(c *fakeStateClient) {
		c.beforeSwap = nil
		racer := c.state(t, "admin")
		racer.Observe(commentB, base.Add(time.Minute))
		racer.Prepend(10, Notification{ID: cycleID, Kind: enums.ChangeKindNew, CommentID: commentB, CreatedAt: base.Add(time.Minute)})
		c.put(t, "admin", racer)
	}

	err := store.Update(context.Background(), "admin", func(state *State) (bool, error) {
		require.True(t, state.MarkRead(readID))
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, client.evals)

	final := client.state(t, "admin")
	assert.Equal(t, base.Add(time.Minute), final.Seen[commentB])
	require.Len(t, final.Notifications, 2)
	assert.Equal(t, cycleID, final.Notifications[0].ID)
	assert.False(t, final.Notifications[0].Read)
	assert.Equal(t, readID, final.Notifications[1].ID)
	assert.True(t, final.Notifications[1].Read)
	assert.Equal(t, 1, final.Unread)
}

func TestUpdateGivesUpUnderSustainedContention(t *testing.T) {
	client := newFakeStateClient()
	store := NewRedisStore(client, time.Hour)

	client.beforeSwap = func(c *fakeStateClient) {
		racer := NewState()
		racer.Observe(uuid.New(), time.Now().UTC())
		c.put(t, "admin", racer)
	}

	err := store.Update(context.Background(), "admin", func(state *State) (bool, error) {
		state.Observe(uuid.New(), time.Now().UTC())
		return true, nil
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Equal(t, maxStateRetries, client.evals)
}

func TestUpdatePropagatesLoadFailure(t *testing.T) {
	client := newFakeStateClient()
	client.getErr = context.DeadlineExceeded
	store := NewRedisStore(client, time.Hour)

	err := store.Update(context.Background(), "admin", func(*State) (bool, error) {
		return true, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, client.evals)
}

func TestLoadToleratesMissingAndCorruptState(t *testing.T) {
	client := newFakeStateClient()
	store := NewRedisStore(client, time.Hour)

	state, err := store.Load(context.Background(), "admin")
	require.NoError(t, err)
	assert.Empty(t, state.Notifications)
	assert.Empty(t, state.Seen)

	client.values[client.WatchStateKey("admin")] = "{not json"
	state, err = store.Load(context.Background(), "admin")
	require.NoError(t, err)
	assert.Empty(t, state.Notifications)
	assert.NotNil(t, state.Seen)
}

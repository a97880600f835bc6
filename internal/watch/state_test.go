package watch

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
)

func TestStatePrependOrdersNewestFirst(t *testing.T) {
	state := NewState()
	first := Notification{ID: uuid.New(), Message: "first"}
	second := Notification{ID: uuid.New(), Message: "second"}

	state.Prepend(10, first)
	state.Prepend(10, second)

	require.Len(t, state.Notifications, 2)
	assert.Equal(t, "second", state.Notifications[0].Message)
	assert.Equal(t, "first", state.Notifications[1].Message)
	assert.Equal(t, 2, state.Unread)
}

func TestStatePrependEvictsOldestBeyondCap(t *testing.T) {
	state := NewState()
	for i := 0; i < 5; i++ {
		state.Prepend(3, Notification{ID: uuid.New(), Message: fmt.Sprintf("n%d", i)})
	}

	require.Len(t, state.Notifications, 3)
	assert.Equal(t, "n4", state.Notifications[0].Message)
	assert.Equal(t, "n2", state.Notifications[2].Message)
	assert.Equal(t, 3, state.Unread)
}

func TestStateEvictionIgnoresReadStatus(t *testing.T) {
	state := NewState()
	oldest := Notification{ID: uuid.New(), Message: "oldest"}
	state.Prepend(2, oldest)
	state.MarkAllRead()

	// FIFO eviction drops the oldest entry even though it was read and the
	// newer ones are not.
	state.Prepend(2, Notification{ID: uuid.New()}, Notification{ID: uuid.New()})
	require.Len(t, state.Notifications, 2)
	for _, n := range state.Notifications {
		assert.NotEqual(t, "oldest", n.Message)
	}
	assert.Equal(t, 2, state.Unread)
}

func TestStateMarkReadRecomputesBadge(t *testing.T) {
	state := NewState()
	target := Notification{ID: uuid.New()}
	state.Prepend(10, target, Notification{ID: uuid.New()})
	require.Equal(t, 2, state.Unread)

	assert.True(t, state.MarkRead(target.ID))
	assert.Equal(t, 1, state.Unread)

	// Marking again is a no-op.
	assert.True(t, state.MarkRead(target.ID))
	assert.Equal(t, 1, state.Unread)

	assert.False(t, state.MarkRead(uuid.New()))
}

func TestStateMarkReadLeavesSeenMapAlone(t *testing.T) {
	state := NewState()
	commentID := uuid.New()
	seenAt := time.Now().UTC()
	state.Observe(commentID, seenAt)

	entry := Notification{ID: uuid.New(), Kind: enums.ChangeKindNew, CommentID: commentID}
	state.Prepend(10, entry)
	state.MarkRead(entry.ID)

	assert.Equal(t, seenAt, state.Seen[commentID])
}

func TestStateMarkAllRead(t *testing.T) {
	state := NewState()
	state.Prepend(10, Notification{ID: uuid.New()}, Notification{ID: uuid.New()})
	state.MarkAllRead()
	assert.Equal(t, 0, state.Unread)
	for _, n := range state.Notifications {
		assert.True(t, n.Read)
	}
}

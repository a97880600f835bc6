package watch

import (
	"time"

	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
)

// DefaultNotificationCap bounds the retained notification list when no
// explicit cap is configured.
const DefaultNotificationCap = 100

// Notification is one entry in the admin-facing feed. Summary entries carry a
// nil CommentID and group a burst of new comments from a single cycle.
type Notification struct {
	ID          uuid.UUID         `json:"id"`
	Kind        enums.ChangeKind  `json:"kind"`
	CommentID   uuid.UUID         `json:"comment_id,omitempty"`
	SubjectID   uuid.UUID         `json:"subject_id,omitempty"`
	SubjectType enums.SubjectType `json:"subject_type,omitempty"`
	PlanID      uuid.UUID         `json:"plan_id,omitempty"`
	StepID      uuid.UUID         `json:"step_id,omitempty"`
	Message     string            `json:"message"`
	Read        bool              `json:"read"`
	CreatedAt   time.Time         `json:"created_at"`
}

// State is the durable view the differ works against: the last observed
// timestamp per comment id plus the bounded notification list. It is a plain
// value object so it can round-trip through any key-value store as JSON.
type State struct {
	Seen          map[uuid.UUID]time.Time `json:"seen"`
	Notifications []Notification          `json:"notifications"`
	Unread        int                     `json:"unread"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// NewState returns an empty state ready for its first poll cycle.
func NewState() *State {
	return &State{Seen: make(map[uuid.UUID]time.Time)}
}

// Prepend inserts notifications newest first and evicts from the tail once the
// limit is exceeded. Eviction is by insertion order regardless of read status.
func (s *State) Prepend(limit int, entries ...Notification) {
	if len(entries) == 0 {
		return
	}
	if limit <= 0 {
		limit = DefaultNotificationCap
	}
	s.Notifications = append(entries, s.Notifications...)
	if len(s.Notifications) > limit {
		s.Notifications = s.Notifications[:limit]
	}
	s.recountUnread()
}

// Observe records the latest timestamp for a comment id.
func (s *State) Observe(id uuid.UUID, at time.Time) {
	if s.Seen == nil {
		s.Seen = make(map[uuid.UUID]time.Time)
	}
	s.Seen[id] = at
}

// MarkRead flags a single notification as read. The seen map is untouched so
// future changes to the same comment still surface.
func (s *State) MarkRead(id uuid.UUID) bool {
	for i := range s.Notifications {
		if s.Notifications[i].ID == id {
			if !s.Notifications[i].Read {
				s.Notifications[i].Read = true
				s.recountUnread()
			}
			return true
		}
	}
	return false
}

// MarkAllRead clears the unread badge without dropping entries.
func (s *State) MarkAllRead() {
	for i := range s.Notifications {
		s.Notifications[i].Read = true
	}
	s.recountUnread()
}

func (s *State) recountUnread() {
	count := 0
	for i := range s.Notifications {
		if !s.Notifications[i].Read {
			count++
		}
	}
	s.Unread = count
}

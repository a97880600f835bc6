package watch

import (
	"time"

	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
)

// Delta is the outcome of one diff pass: comments never seen before and
// comments whose timestamp moved forward since the last observation.
type Delta struct {
	New     []models.Comment `json:"new"`
	Updated []models.Comment `json:"updated"`
}

// Empty reports whether the pass observed no changes.
func (d Delta) Empty() bool {
	return len(d.New) == 0 && len(d.Updated) == 0
}

// Diff classifies the fetched comment set against the seen map. Comments are
// processed in fetch order; only the first occurrence of an id within one pass
// counts, so a duplicated row cannot double-emit. The seen map is not
// modified; callers apply the delta afterwards.
func Diff(seen map[uuid.UUID]time.Time, fetched []models.Comment) Delta {
	var delta Delta
	handled := make(map[uuid.UUID]struct{}, len(fetched))
	for i := range fetched {
		comment := fetched[i]
		if _, done := handled[comment.ID]; done {
			continue
		}
		handled[comment.ID] = struct{}{}

		last, ok := seen[comment.ID]
		switch {
		case !ok:
			delta.New = append(delta.New, comment)
		case comment.CreatedAt.After(last):
			delta.Updated = append(delta.Updated, comment)
		}
	}
	return delta
}

// Watermarks returns the timestamps the caller should carry into its next
// poll, folding the delta into the previous map.
func Watermarks(previous map[uuid.UUID]time.Time, delta Delta) map[uuid.UUID]time.Time {
	next := make(map[uuid.UUID]time.Time, len(previous)+len(delta.New))
	for id, at := range previous {
		next[id] = at
	}
	for i := range delta.New {
		next[delta.New[i].ID] = delta.New[i].CreatedAt
	}
	for i := range delta.Updated {
		next[delta.Updated[i].ID] = delta.Updated[i].CreatedAt
	}
	return next
}

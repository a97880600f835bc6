package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
	"github.com/rvillegas/onboardtrack-backend/pkg/metrics"
)

const commentLoop = "comments"

type commentSource interface {
	FetchAll(ctx context.Context) ([]models.Comment, error)
}

// NotificationsView is what the admin UI renders: the bounded feed plus the
// unread badge.
type NotificationsView struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

// PollResult is returned by the stateless poll contract: the classified
// changes and the watermarks the caller should send next time.
type PollResult struct {
	New        []models.Comment        `json:"new"`
	Updated    []models.Comment        `json:"updated"`
	Watermarks map[uuid.UUID]time.Time `json:"watermarks"`
}

// Service owns the diff-based change detection and the notification feed.
type Service interface {
	Cycle(ctx context.Context, scope string) (Delta, error)
	CycleAll(ctx context.Context, scopes []string) error
	PollChanges(ctx context.Context, since map[uuid.UUID]time.Time) (*PollResult, error)
	Notifications(ctx context.Context, scope string) (*NotificationsView, error)
	MarkRead(ctx context.Context, scope string, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, scope string) error
}

type service struct {
	source  commentSource
	store   Store
	limit   int
	logg    *logger.Logger
	metrics *metrics.PollerMetrics
}

// NewService wires the differ to a comment source and a state store.
func NewService(source commentSource, store Store, limit int, logg *logger.Logger, m *metrics.PollerMetrics) (Service, error) {
	if source == nil || store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "comment source and state store required")
	}
	if limit <= 0 {
		limit = DefaultNotificationCap
	}
	return &service{source: source, store: store, limit: limit, logg: logg, metrics: m}, nil
}

// Cycle runs one poll pass for a scope: fetch, diff, emit, persist. A fetch
// failure leaves the stored state untouched so the next tick retries cleanly.
// The diff runs inside the store's Update so a mark-read racing in from the
// api process cannot roll back the seen map and re-emit old notifications.
func (s *service) Cycle(ctx context.Context, scope string) (Delta, error) {
	rows, err := s.source.FetchAll(ctx)
	if err != nil {
		return Delta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch comments")
	}

	var delta Delta
	err = s.store.Update(ctx, scope, func(state *State) (bool, error) {
		delta = Diff(state.Seen, rows)
		if delta.Empty() {
			return false, nil
		}
		s.apply(state, delta)
		return true, nil
	})
	if err != nil {
		return Delta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save notification state")
	}
	if delta.Empty() {
		return delta, nil
	}

	s.metrics.AddEmitted(commentLoop, "new", len(delta.New))
	s.metrics.AddEmitted(commentLoop, "updated", len(delta.Updated))
	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("poll cycle for %s emitted %d new, %d updated", scope, len(delta.New), len(delta.Updated)))
	}
	return delta, nil
}

// CycleAll runs one pass per scope, aggregating failures so one broken scope
// does not starve the rest.
func (s *service) CycleAll(ctx context.Context, scopes []string) error {
	var errs error
	for _, scope := range scopes {
		if _, err := s.Cycle(ctx, scope); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("scope %s: %w", scope, err))
		}
	}
	return errs
}

// PollChanges is the watermark-in, delta-out contract for clients that hold
// their own state. It never touches the stored scopes.
func (s *service) PollChanges(ctx context.Context, since map[uuid.UUID]time.Time) (*PollResult, error) {
	rows, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch comments")
	}
	delta := Diff(since, rows)
	return &PollResult{
		New:        delta.New,
		Updated:    delta.Updated,
		Watermarks: Watermarks(since, delta),
	}, nil
}

func (s *service) Notifications(ctx context.Context, scope string) (*NotificationsView, error) {
	state, err := s.store.Load(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification state")
	}
	items := state.Notifications
	if items == nil {
		items = []Notification{}
	}
	return &NotificationsView{Items: items, Unread: state.Unread}, nil
}

func (s *service) MarkRead(ctx context.Context, scope string, notificationID uuid.UUID) error {
	err := s.store.Update(ctx, scope, func(state *State) (bool, error) {
		if !state.MarkRead(notificationID) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return true, nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save notification state")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, scope string) error {
	err := s.store.Update(ctx, scope, func(state *State) (bool, error) {
		state.MarkAllRead()
		return true, nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save notification state")
	}
	return nil
}

// apply folds a delta into state: advance the seen map, then prepend one
// notification per affected comment plus a summary entry when a single cycle
// brings more than one new comment.
func (s *service) apply(state *State, delta Delta) {
	now := time.Now().UTC()
	entries := make([]Notification, 0, len(delta.New)+len(delta.Updated)+1)

	if len(delta.New) > 1 {
		entries = append(entries, Notification{
			ID:        uuid.New(),
			Kind:      enums.ChangeKindSummary,
			Message:   fmt.Sprintf("%d new comments", len(delta.New)),
			CreatedAt: now,
		})
	}
	for i := range delta.New {
		state.Observe(delta.New[i].ID, delta.New[i].CreatedAt)
		entries = append(entries, notificationFor(enums.ChangeKindNew, &delta.New[i], now))
	}
	for i := range delta.Updated {
		state.Observe(delta.Updated[i].ID, delta.Updated[i].CreatedAt)
		entries = append(entries, notificationFor(enums.ChangeKindUpdated, &delta.Updated[i], now))
	}
	state.Prepend(s.limit, entries...)
}

func notificationFor(kind enums.ChangeKind, comment *models.Comment, now time.Time) Notification {
	verb := "New comment"
	if kind == enums.ChangeKindUpdated {
		verb = "Comment updated"
	}
	return Notification{
		ID:          uuid.New(),
		Kind:        kind,
		CommentID:   comment.ID,
		SubjectID:   comment.SubjectID,
		SubjectType: comment.SubjectType,
		PlanID:      comment.PlanID,
		StepID:      comment.StepID,
		Message:     fmt.Sprintf("%s on step %s", verb, comment.StepID),
		CreatedAt:   now,
	}
}

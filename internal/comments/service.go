package comments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/pagination"
)

type commentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	List(ctx context.Context, params listParams) ([]models.Comment, *pagination.Cursor, error)
}

// AddInput identifies the (subject, plan, step) triple a comment hangs off.
type AddInput struct {
	SubjectID   uuid.UUID
	SubjectType enums.SubjectType
	PlanID      uuid.UUID
	StepID      uuid.UUID
	Text        string
}

// ListParams configures scope filtering and pagination for the comment feed.
type ListParams struct {
	SubjectID   uuid.UUID
	SubjectType enums.SubjectType
	PlanID      uuid.UUID
	StepID      uuid.UUID
	Limit       int
	Cursor      string
}

// CommentDTO exposes one feedback entry.
type CommentDTO struct {
	ID          uuid.UUID         `json:"id"`
	SubjectID   uuid.UUID         `json:"subject_id"`
	SubjectType enums.SubjectType `json:"subject_type"`
	PlanID      uuid.UUID         `json:"plan_id"`
	StepID      uuid.UUID         `json:"step_id"`
	Text        string            `json:"text"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ListResult wraps returned comments and the cursor for the next page.
type ListResult struct {
	Items  []CommentDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

// Service exposes the append-only feedback log.
type Service interface {
	Add(ctx context.Context, input AddInput) (*CommentDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo commentRepository
}

// NewService builds a comments service.
func NewService(repo commentRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "comments repository required")
	}
	return &service{repo: repo}, nil
}

// Add always creates a fresh row; there is no in-place edit.
func (s *service) Add(ctx context.Context, input AddInput) (*CommentDTO, error) {
	if !input.SubjectType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subject type")
	}
	if input.SubjectID == uuid.Nil || input.PlanID == uuid.Nil || input.StepID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject, plan and step ids required")
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment text required")
	}

	comment := &models.Comment{
		SubjectID:   input.SubjectID,
		SubjectType: input.SubjectType,
		PlanID:      input.PlanID,
		StepID:      input.StepID,
		Text:        text,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
	}
	return fromModel(comment), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{
		SubjectID:   params.SubjectID,
		SubjectType: params.SubjectType,
		PlanID:      params.PlanID,
		StepID:      params.StepID,
		Limit:       params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list comments")
	}

	result := &ListResult{Items: make([]CommentDTO, 0, len(rows))}
	for i := range rows {
		result.Items = append(result.Items, *fromModel(&rows[i]))
	}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func fromModel(m *models.Comment) *CommentDTO {
	return &CommentDTO{
		ID:          m.ID,
		SubjectID:   m.SubjectID,
		SubjectType: m.SubjectType,
		PlanID:      m.PlanID,
		StepID:      m.StepID,
		Text:        m.Text,
		CreatedAt:   m.CreatedAt,
	}
}

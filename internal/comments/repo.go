package comments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	"github.com/rvillegas/onboardtrack-backend/pkg/pagination"
)

// Repository handles comment persistence. Comments are append-only; there is
// no update path in this service.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to comment operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type listParams struct {
	SubjectID   uuid.UUID
	SubjectType enums.SubjectType
	PlanID      uuid.UUID
	StepID      uuid.UUID
	Limit       int
	Cursor      *pagination.Cursor
}

// Create appends one comment row.
func (r *Repository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// List returns scope-filtered comments newest first with cursor pagination.
func (r *Repository) List(ctx context.Context, params listParams) ([]models.Comment, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Comment{})
	if params.SubjectID != uuid.Nil {
		query = query.Where("subject_id = ? AND subject_type = ?", params.SubjectID, params.SubjectType)
	}
	if params.PlanID != uuid.Nil {
		query = query.Where("plan_id = ?", params.PlanID)
	}
	if params.StepID != uuid.Nil {
		query = query.Where("step_id = ?", params.StepID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Comment
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[normalized-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

// FetchAll returns the full current comment set in insertion order. The watch
// engine diffs against this snapshot every poll cycle.
func (r *Repository) FetchAll(ctx context.Context) ([]models.Comment, error) {
	var rows []models.Comment
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

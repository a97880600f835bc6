package steps

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/internal/assignments"
	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
)

// Repository handles assigned-step persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to step operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindOwned loads the step only when it belongs to the claimed subject. A
// step id that exists under a different subject is indistinguishable from a
// missing one; that keeps cross-subject tampering out.
func (r *Repository) FindOwned(ctx context.Context, subject assignments.Subject, stepID uuid.UUID) (*models.AssignedStep, error) {
	var step models.AssignedStep
	err := r.db.WithContext(ctx).
		Joins("JOIN assignments ON assignments.id = assigned_steps.assignment_id").
		Where("assigned_steps.id = ? AND assignments.subject_id = ? AND assignments.subject_type = ?",
			stepID, subject.ID, subject.Type).
		First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// UpdateFields applies the given column updates to one step and bumps
// updated_at. Last write wins; there is no version check.
func (r *Repository) UpdateFields(ctx context.Context, stepID uuid.UUID, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.AssignedStep{}).
		Where("id = ?", stepID).
		Updates(fields).Error
}

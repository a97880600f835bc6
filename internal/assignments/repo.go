package assignments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
)

// Repository handles assignment persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to assignment operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindBySubjectAndPlan loads one assignment with its steps, if present.
func (r *Repository) FindBySubjectAndPlan(ctx context.Context, subject Subject, planID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Where("subject_id = ? AND subject_type = ? AND plan_id = ?", subject.ID, subject.Type, planID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListBySubject returns every assignment for the subject with its plan and
// ordered steps loaded in a fixed number of queries.
func (r *Repository) ListBySubject(ctx context.Context, subject Subject) ([]models.Assignment, error) {
	var rows []models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Where("subject_id = ? AND subject_type = ?", subject.ID, subject.Type).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateWithSteps inserts the assignment plus one assigned step per template
// step in a single transaction. The created step set must exactly mirror the
// templates; a count mismatch rolls the whole transaction back.
func (r *Repository) CreateWithSteps(ctx context.Context, assignment *models.Assignment, templates []models.StepTemplate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Steps").Create(assignment).Error; err != nil {
			return err
		}

		steps := make([]models.AssignedStep, 0, len(templates))
		for _, tmpl := range templates {
			steps = append(steps, models.AssignedStep{
				AssignmentID:      assignment.ID,
				StepNumber:        tmpl.StepNumber,
				Status:            enums.StepStatusOpen,
				Description:       tmpl.Description,
				ReferenceImageURL: tmpl.ReferenceImageURL,
			})
		}
		if len(steps) > 0 {
			if err := tx.Create(&steps).Error; err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(&models.AssignedStep{}).
			Where("assignment_id = ?", assignment.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(templates)) {
			return fmt.Errorf("assigned step count %d does not match template count %d", count, len(templates))
		}

		assignment.Steps = steps
		return nil
	})
}

// Delete removes the assignment and its steps. Steps are deleted explicitly;
// the schema-level FK cascade is a backstop.
func (r *Repository) Delete(ctx context.Context, subject Subject, planID uuid.UUID) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignment models.Assignment
		err := tx.Where("subject_id = ? AND subject_type = ? AND plan_id = ?", subject.ID, subject.Type, planID).
			First(&assignment).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}

		if err := tx.Where("assignment_id = ?", assignment.ID).Delete(&models.AssignedStep{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", assignment.ID).Delete(&models.Assignment{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}

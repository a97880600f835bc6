package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
)

// Repository handles plan template persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to catalog operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreatePlan persists a new plan template row.
func (r *Repository) CreatePlan(ctx context.Context, plan *models.PlanTemplate) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// FindPlanByID loads a plan with its steps ordered by step number.
func (r *Repository) FindPlanByID(ctx context.Context, id uuid.UUID) (*models.PlanTemplate, error) {
	var plan models.PlanTemplate
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Where("id = ?", id).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans returns every plan template with steps preloaded.
func (r *Repository) ListPlans(ctx context.Context, activeOnly bool) ([]models.PlanTemplate, error) {
	query := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Order("created_at ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var plans []models.PlanTemplate
	if err := query.Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// UpdatePlan saves the provided plan.
func (r *Repository) UpdatePlan(ctx context.Context, plan *models.PlanTemplate) error {
	if plan == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Omit("Steps").Save(plan).Error
}

// DeletePlan removes the plan row; step templates cascade in the schema.
func (r *Repository) DeletePlan(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PlanTemplate{})
	return result.RowsAffected, result.Error
}

// CreateStep persists a template step. Duplicate (plan, step_number) pairs
// surface as a unique violation from the driver.
func (r *Repository) CreateStep(ctx context.Context, step *models.StepTemplate) error {
	return r.db.WithContext(ctx).Create(step).Error
}

// FindStep loads one template step by its stable number within a plan.
func (r *Repository) FindStep(ctx context.Context, planID uuid.UUID, stepNumber int) (*models.StepTemplate, error) {
	var step models.StepTemplate
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND step_number = ?", planID, stepNumber).
		First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// UpdateStep saves the provided template step.
func (r *Repository) UpdateStep(ctx context.Context, step *models.StepTemplate) error {
	if step == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(step).Error
}

// DeleteStep removes one template step. Other step numbers are untouched.
func (r *Repository) DeleteStep(ctx context.Context, planID uuid.UUID, stepNumber int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("plan_id = ? AND step_number = ?", planID, stepNumber).
		Delete(&models.StepTemplate{})
	return result.RowsAffected, result.Error
}

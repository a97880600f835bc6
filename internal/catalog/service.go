package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/pkg/db"
	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
)

type catalogRepository interface {
	CreatePlan(ctx context.Context, plan *models.PlanTemplate) error
	FindPlanByID(ctx context.Context, id uuid.UUID) (*models.PlanTemplate, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]models.PlanTemplate, error)
	UpdatePlan(ctx context.Context, plan *models.PlanTemplate) error
	DeletePlan(ctx context.Context, id uuid.UUID) (int64, error)
	CreateStep(ctx context.Context, step *models.StepTemplate) error
	FindStep(ctx context.Context, planID uuid.UUID, stepNumber int) (*models.StepTemplate, error)
	UpdateStep(ctx context.Context, step *models.StepTemplate) error
	DeleteStep(ctx context.Context, planID uuid.UUID, stepNumber int) (int64, error)
}

// Service exposes plan catalog operations.
type Service interface {
	CreatePlan(ctx context.Context, input CreatePlanInput) (*PlanDTO, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*PlanDTO, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]PlanDTO, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, input UpdatePlanInput) (*PlanDTO, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	AddStep(ctx context.Context, planID uuid.UUID, input StepInput) (*StepDTO, error)
	UpdateStep(ctx context.Context, planID uuid.UUID, stepNumber int, description string, referenceImageURL *string) (*StepDTO, error)
	DeleteStep(ctx context.Context, planID uuid.UUID, stepNumber int) error
}

type service struct {
	repo catalogRepository
}

// NewService builds a catalog service with the provided repository.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreatePlan(ctx context.Context, input CreatePlanInput) (*PlanDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name required")
	}

	plan := &models.PlanTemplate{
		Name:        name,
		Description: input.Description,
		Price:       input.Price,
		Active:      true,
		Tags:        input.Tags,
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create plan")
	}
	return FromPlanModel(plan), nil
}

func (s *service) GetPlan(ctx context.Context, id uuid.UUID) (*PlanDTO, error) {
	plan, err := s.findPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromPlanModel(plan), nil
}

func (s *service) ListPlans(ctx context.Context, activeOnly bool) ([]PlanDTO, error) {
	plans, err := s.repo.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}

	dtos := make([]PlanDTO, 0, len(plans))
	for i := range plans {
		dtos = append(dtos, *FromPlanModel(&plans[i]))
	}
	return dtos, nil
}

func (s *service) UpdatePlan(ctx context.Context, id uuid.UUID, input UpdatePlanInput) (*PlanDTO, error) {
	plan, err := s.findPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name cannot be empty")
		}
		plan.Name = name
	}
	if input.Description != nil {
		plan.Description = *input.Description
	}
	if input.Price != nil {
		plan.Price = *input.Price
	}
	if input.Active != nil {
		plan.Active = *input.Active
	}
	if input.Tags != nil {
		plan.Tags = *input.Tags
	}

	if err := s.repo.UpdatePlan(ctx, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update plan")
	}
	return FromPlanModel(plan), nil
}

func (s *service) DeletePlan(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.DeletePlan(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "plan is assigned to at least one subject; remove its assignments first")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete plan")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}
	return nil
}

func (s *service) AddStep(ctx context.Context, planID uuid.UUID, input StepInput) (*StepDTO, error) {
	if input.StepNumber <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "step_number must be a positive integer")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "step description required")
	}

	if _, err := s.findPlan(ctx, planID); err != nil {
		return nil, err
	}

	step := &models.StepTemplate{
		PlanID:            planID,
		StepNumber:        input.StepNumber,
		Description:       input.Description,
		ReferenceImageURL: input.ReferenceImageURL,
	}
	if err := s.repo.CreateStep(ctx, step); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "step number already exists for this plan")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create step")
	}
	return &StepDTO{
		StepNumber:        step.StepNumber,
		Description:       step.Description,
		ReferenceImageURL: step.ReferenceImageURL,
	}, nil
}

func (s *service) UpdateStep(ctx context.Context, planID uuid.UUID, stepNumber int, description string, referenceImageURL *string) (*StepDTO, error) {
	step, err := s.repo.FindStep(ctx, planID, stepNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "step not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find step")
	}

	if strings.TrimSpace(description) != "" {
		step.Description = description
	}
	step.ReferenceImageURL = referenceImageURL

	if err := s.repo.UpdateStep(ctx, step); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update step")
	}
	return &StepDTO{
		StepNumber:        step.StepNumber,
		Description:       step.Description,
		ReferenceImageURL: step.ReferenceImageURL,
	}, nil
}

func (s *service) DeleteStep(ctx context.Context, planID uuid.UUID, stepNumber int) error {
	affected, err := s.repo.DeleteStep(ctx, planID, stepNumber)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete step")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "step not found")
	}
	return nil
}

func (s *service) findPlan(ctx context.Context, id uuid.UUID) (*models.PlanTemplate, error) {
	plan, err := s.repo.FindPlanByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find plan")
	}
	return plan, nil
}

package assignments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/pkg/db"
	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
)

type assignmentRepository interface {
	FindBySubjectAndPlan(ctx context.Context, subject Subject, planID uuid.UUID) (*models.Assignment, error)
	ListBySubject(ctx context.Context, subject Subject) ([]models.Assignment, error)
	CreateWithSteps(ctx context.Context, assignment *models.Assignment, templates []models.StepTemplate) error
	Delete(ctx context.Context, subject Subject, planID uuid.UUID) (int64, error)
}

type planFinder interface {
	FindPlanByID(ctx context.Context, id uuid.UUID) (*models.PlanTemplate, error)
}

type subjectDirectory interface {
	Exists(ctx context.Context, subjectType enums.SubjectType, subjectID uuid.UUID) (bool, error)
}

// Service exposes assignment operations.
type Service interface {
	Assign(ctx context.Context, subject Subject, planID uuid.UUID) (*AssignResult, error)
	ListForSubject(ctx context.Context, subject Subject) ([]AssignmentDTO, error)
	Remove(ctx context.Context, subject Subject, planID uuid.UUID) error
}

type service struct {
	repo     assignmentRepository
	plans    planFinder
	subjects subjectDirectory
}

// NewService wires assignment dependencies.
func NewService(repo assignmentRepository, plans planFinder, subjects subjectDirectory) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignment repository required")
	}
	if plans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "plan finder required")
	}
	if subjects == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subject directory required")
	}
	return &service{repo: repo, plans: plans, subjects: subjects}, nil
}

// Assign binds the plan to the subject. A second call for the same pair is a
// success reporting the existing assignment, never a duplicate.
func (s *service) Assign(ctx context.Context, subject Subject, planID uuid.UUID) (*AssignResult, error) {
	if err := s.checkSubject(ctx, subject); err != nil {
		return nil, err
	}

	plan, err := s.plans.FindPlanByID(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find plan")
	}
	if !plan.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "plan is not active")
	}

	existing, err := s.repo.FindBySubjectAndPlan(ctx, subject, planID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find assignment")
	}
	if existing != nil {
		return &AssignResult{Assignment: FromAssignmentModel(existing, plan.Name), Created: false}, nil
	}

	assignment := &models.Assignment{
		SubjectID:   subject.ID,
		SubjectType: subject.Type,
		PlanID:      planID,
	}
	if err := s.repo.CreateWithSteps(ctx, assignment, plan.Steps); err != nil {
		// A concurrent assign for the same pair can win between the existence
		// check and the insert; the unique index turns that into a duplicate
		// to report, not a failure.
		if db.IsUniqueViolation(err, "") {
			existing, findErr := s.repo.FindBySubjectAndPlan(ctx, subject, planID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "find assignment")
			}
			return &AssignResult{Assignment: FromAssignmentModel(existing, plan.Name), Created: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
	}
	return &AssignResult{Assignment: FromAssignmentModel(assignment, plan.Name), Created: true}, nil
}

func (s *service) ListForSubject(ctx context.Context, subject Subject) ([]AssignmentDTO, error) {
	if err := s.checkSubject(ctx, subject); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListBySubject(ctx, subject)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}

	dtos := make([]AssignmentDTO, 0, len(rows))
	for i := range rows {
		planName := ""
		if rows[i].Plan != nil {
			planName = rows[i].Plan.Name
		}
		dtos = append(dtos, *FromAssignmentModel(&rows[i], planName))
	}
	return dtos, nil
}

// Remove deletes the assignment and everything under it. Calling it twice is
// safe; the second call reports not found without aborting the caller.
func (s *service) Remove(ctx context.Context, subject Subject, planID uuid.UUID) error {
	if !subject.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid subject type")
	}

	affected, err := s.repo.Delete(ctx, subject, planID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove assignment")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}
	return nil
}

func (s *service) checkSubject(ctx context.Context, subject Subject) error {
	if !subject.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid subject type")
	}
	if subject.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject id required")
	}

	exists, err := s.subjects.Exists(ctx, subject.Type, subject.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve subject")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subject not found")
	}
	return nil
}

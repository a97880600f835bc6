package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
)

type stepKey struct {
	planID     uuid.UUID
	stepNumber int
}

type fakeCatalogRepo struct {
	plans         map[uuid.UUID]*models.PlanTemplate
	steps         map[stepKey]*models.StepTemplate
	deletePlanErr error
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		plans: map[uuid.UUID]*models.PlanTemplate{},
		steps: map[stepKey]*models.StepTemplate{},
	}
}

func (f *fakeCatalogRepo) CreatePlan(_ context.Context, plan *models.PlanTemplate) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakeCatalogRepo) FindPlanByID(_ context.Context, id uuid.UUID) (*models.PlanTemplate, error) {
	plan, ok := f.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (f *fakeCatalogRepo) ListPlans(_ context.Context, activeOnly bool) ([]models.PlanTemplate, error) {
	var out []models.PlanTemplate
	for _, plan := range f.plans {
		if activeOnly && !plan.Active {
			continue
		}
		out = append(out, *plan)
	}
	return out, nil
}

func (f *fakeCatalogRepo) UpdatePlan(_ context.Context, plan *models.PlanTemplate) error {
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakeCatalogRepo) DeletePlan(_ context.Context, id uuid.UUID) (int64, error) {
	if f.deletePlanErr != nil {
		return 0, f.deletePlanErr
	}
	if _, ok := f.plans[id]; !ok {
		return 0, nil
	}
	delete(f.plans, id)
	return 1, nil
}

func (f *fakeCatalogRepo) CreateStep(_ context.Context, step *models.StepTemplate) error {
	key := stepKey{planID: step.PlanID, stepNumber: step.StepNumber}
	if _, ok := f.steps[key]; ok {
		return fmt.Errorf("duplicate key value violates unique constraint %q", "step_templates_plan_id_step_number_key")
	}
	f.steps[key] = step
	return nil
}

func (f *fakeCatalogRepo) FindStep(_ context.Context, planID uuid.UUID, stepNumber int) (*models.StepTemplate, error) {
	step, ok := f.steps[stepKey{planID: planID, stepNumber: stepNumber}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return step, nil
}

func (f *fakeCatalogRepo) UpdateStep(_ context.Context, step *models.StepTemplate) error {
	f.steps[stepKey{planID: step.PlanID, stepNumber: step.StepNumber}] = step
	return nil
}

func (f *fakeCatalogRepo) DeleteStep(_ context.Context, planID uuid.UUID, stepNumber int) (int64, error) {
	key := stepKey{planID: planID, stepNumber: stepNumber}
	if _, ok := f.steps[key]; !ok {
		return 0, nil
	}
	delete(f.steps, key)
	return 1, nil
}

func newCatalogService(t *testing.T) (Service, *fakeCatalogRepo) {
	t.Helper()
	repo := newFakeCatalogRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestCreatePlanDefaultsToActive(t *testing.T) {
	svc, _ := newCatalogService(t)

	plan, err := svc.CreatePlan(context.Background(), CreatePlanInput{
		Name:        "  Starter Onboarding  ",
		Description: "first thirty days",
		Price:       decimal.NewFromInt(499),
		Tags:        []string{"starter"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Starter Onboarding", plan.Name)
	assert.True(t, plan.Active)
	assert.True(t, plan.Price.Equal(decimal.NewFromInt(499)))
	assert.NotEqual(t, uuid.Nil, plan.ID)
}

func TestCreatePlanRequiresName(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.CreatePlan(context.Background(), CreatePlanInput{Name: "   "})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListPlansActiveOnlyFilters(t *testing.T) {
	svc, repo := newCatalogService(t)

	active, err := svc.CreatePlan(context.Background(), CreatePlanInput{Name: "Active"})
	require.NoError(t, err)
	retired, err := svc.CreatePlan(context.Background(), CreatePlanInput{Name: "Retired"})
	require.NoError(t, err)
	repo.plans[retired.ID].Active = false

	all, err := svc.ListPlans(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := svc.ListPlans(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)
}

func TestUpdatePlanAppliesOnlyProvidedFields(t *testing.T) {
	svc, _ := newCatalogService(t)

	created, err := svc.CreatePlan(context.Background(), CreatePlanInput{
		Name:        "Original",
		Description: "keep me",
		Price:       decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	name := "Renamed"
	inactive := false
	updated, err := svc.UpdatePlan(context.Background(), created.ID, UpdatePlanInput{
		Name:   &name,
		Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "keep me", updated.Description)
	assert.False(t, updated.Active)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(100)))
}

func TestUpdatePlanRejectsBlankName(t *testing.T) {
	svc, _ := newCatalogService(t)

	created, err := svc.CreatePlan(context.Background(), CreatePlanInput{Name: "Plan"})
	require.NoError(t, err)

	blank := "  "
	_, err = svc.UpdatePlan(context.Background(), created.ID, UpdatePlanInput{Name: &blank})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestPlanLookupsReturnNotFound(t *testing.T) {
	svc, _ := newCatalogService(t)
	missing := uuid.New()

	_, err := svc.GetPlan(context.Background(), missing)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = svc.DeletePlan(context.Background(), missing)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeletePlanWithAssignmentsIsConflict(t *testing.T) {
	svc, repo := newCatalogService(t)

	plan, err := svc.CreatePlan(context.Background(), CreatePlanInput{Name: "Referenced Plan"})
	require.NoError(t, err)

	repo.deletePlanErr = fmt.Errorf(`update or delete on table "plan_templates" violates foreign key constraint "assignments_plan_id_fkey" on table "assignments"`)

	err = svc.DeletePlan(context.Background(), plan.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestAddStepValidatesInput(t *testing.T) {
	svc, _ := newCatalogService(t)

	plan, err := svc.CreatePlan(context.Background(), CreatePlanInput{Name: "Plan"})
	require.NoError(t, err)

	_, err = svc.AddStep(context.Background(), plan.ID, StepInput{StepNumber: 0, Description: "x"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.AddStep(context.Background(), plan.ID, StepInput{StepNumber: 1, Description: "  "})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.AddStep(context.Background(), uuid.New(), StepInput{StepNumber: 1, Description: "x"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAddStepRejectsDuplicateNumber(t *testing.T) {
	svc, _ := newCatalogService(t)

	plan, err := svc.CreatePlan(context.Background(), CreatePlanInput{Name: "Plan"})
	require.NoError(t, err)

	_, err = svc.AddStep(context.Background(), plan.ID, StepInput{StepNumber: 1, Description: "first"})
	require.NoError(t, err)

	_, err = svc.AddStep(context.Background(), plan.ID, StepInput{StepNumber: 1, Description: "again"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestUpdateStepKeepsDescriptionWhenBlank(t *testing.T) {
	svc, _ := newCatalogService(t)

	plan, err := svc.CreatePlan(context.Background(), CreatePlanInput{Name: "Plan"})
	require.NoError(t, err)
	_, err = svc.AddStep(context.Background(), plan.ID, StepInput{StepNumber: 2, Description: "submit tax forms"})
	require.NoError(t, err)

	imageURL := "https://cdn.example.com/ref.png"
	updated, err := svc.UpdateStep(context.Background(), plan.ID, 2, "   ", &imageURL)
	require.NoError(t, err)
	assert.Equal(t, "submit tax forms", updated.Description)
	require.NotNil(t, updated.ReferenceImageURL)
	assert.Equal(t, imageURL, *updated.ReferenceImageURL)

	_, err = svc.UpdateStep(context.Background(), plan.ID, 99, "whatever", nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteStep(t *testing.T) {
	svc, _ := newCatalogService(t)

	plan, err := svc.CreatePlan(context.Background(), CreatePlanInput{Name: "Plan"})
	require.NoError(t, err)
	_, err = svc.AddStep(context.Background(), plan.ID, StepInput{StepNumber: 1, Description: "one"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStep(context.Background(), plan.ID, 1))

	err = svc.DeleteStep(context.Background(), plan.ID, 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

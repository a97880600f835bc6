package assignments

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/internal/catalog"
	"github.com/rvillegas/onboardtrack-backend/internal/subjects"
	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:assignments-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE plan_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  tags TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE step_templates (
  id TEXT PRIMARY KEY,
  plan_id TEXT NOT NULL,
  step_number INTEGER NOT NULL,
  description TEXT NOT NULL,
  reference_image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (plan_id, step_number)
);`,
		`CREATE TABLE dropshippers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
		`CREATE TABLE employees (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  department TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
		`CREATE TABLE assignments (
  id TEXT PRIMARY KEY,
  subject_id TEXT NOT NULL,
  subject_type TEXT NOT NULL,
  plan_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (subject_id, subject_type, plan_id)
);`,
		`CREATE TABLE assigned_steps (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  step_number INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  description TEXT NOT NULL,
  reference_image_url TEXT,
  custom_description TEXT,
  custom_image_url TEXT,
  client_pending INTEGER NOT NULL DEFAULT 0,
  client_pending_note TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (assignment_id, step_number)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newServiceOverDB(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db), subjects.NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedDropshipper(t *testing.T, db *gorm.DB) Subject {
	t.Helper()
	row := models.Dropshipper{
		Name:   "Acme Seller",
		Email:  fmt.Sprintf("%s@example.com", uuid.NewString()),
		Active: true,
	}
	require.NoError(t, db.Create(&row).Error)
	return Subject{ID: row.ID, Type: enums.SubjectTypeDropshipper}
}

func seedPlan(t *testing.T, db *gorm.DB, stepCount int, active bool) *models.PlanTemplate {
	t.Helper()
	plan := models.PlanTemplate{Name: "Onboarding Basics", Active: active}
	require.NoError(t, db.Create(&plan).Error)
	for i := 1; i <= stepCount; i++ {
		imageURL := fmt.Sprintf("https://cdn.example.com/steps/%d.png", i)
		step := models.StepTemplate{
			PlanID:            plan.ID,
			StepNumber:        i,
			Description:       fmt.Sprintf("Step %d", i),
			ReferenceImageURL: &imageURL,
		}
		require.NoError(t, db.Create(&step).Error)
	}
	return &plan
}

func TestAssignCreatesOneStepPerTemplate(t *testing.T) {
	db := setupTestDB(t)
	svc := newServiceOverDB(t, db)
	subject := seedDropshipper(t, db)
	plan := seedPlan(t, db, 3, true)

	result, err := svc.Assign(context.Background(), subject, plan.ID)
	require.NoError(t, err)
	assert.True(t, result.Created)
	require.Len(t, result.Assignment.Steps, 3)

	for i, step := range result.Assignment.Steps {
		assert.Equal(t, i+1, step.StepNumber)
		assert.Equal(t, enums.StepStatusOpen, step.Status)
		assert.Equal(t, fmt.Sprintf("Step %d", i+1), step.Description)
		require.NotNil(t, step.ReferenceImageURL)
		assert.False(t, step.ClientPending)
	}

	var count int64
	require.NoError(t, db.Model(&models.AssignedStep{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestAssignIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := newServiceOverDB(t, db)
	subject := seedDropshipper(t, db)
	plan := seedPlan(t, db, 2, true)

	first, err := svc.Assign(context.Background(), subject, plan.ID)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.Assign(context.Background(), subject, plan.ID)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Assignment.ID, second.Assignment.ID)

	var assignmentCount, stepCount int64
	require.NoError(t, db.Model(&models.Assignment{}).Count(&assignmentCount).Error)
	require.NoError(t, db.Model(&models.AssignedStep{}).Count(&stepCount).Error)
	assert.Equal(t, int64(1), assignmentCount)
	assert.Equal(t, int64(2), stepCount)
}

// staleCheckRepo serves a configurable number of record-not-found answers
// before delegating, standing in for a concurrent assign that inserts between
// the existence check and the create.
type staleCheckRepo struct {
	*Repository
	misses int
}

func (r *staleCheckRepo) FindBySubjectAndPlan(ctx context.Context, subject Subject, planID uuid.UUID) (*models.Assignment, error) {
	if r.misses > 0 {
		r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.Repository.FindBySubjectAndPlan(ctx, subject, planID)
}

func TestAssignLosingInsertRaceReportsExisting(t *testing.T) {
	db := setupTestDB(t)
	subject := seedDropshipper(t, db)
	plan := seedPlan(t, db, 2, true)

	first, err := newServiceOverDB(t, db).Assign(context.Background(), subject, plan.ID)
	require.NoError(t, err)
	require.True(t, first.Created)

	repo := &staleCheckRepo{Repository: NewRepository(db), misses: 1}
	svc, err := NewService(repo, catalog.NewRepository(db), subjects.NewRepository(db))
	require.NoError(t, err)

	// The stale check misses the row, the insert trips the unique index, and
	// the caller still gets the existing assignment back.
	second, err := svc.Assign(context.Background(), subject, plan.ID)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Assignment.ID, second.Assignment.ID)

	var assignmentCount, stepCount int64
	require.NoError(t, db.Model(&models.Assignment{}).Count(&assignmentCount).Error)
	require.NoError(t, db.Model(&models.AssignedStep{}).Count(&stepCount).Error)
	assert.Equal(t, int64(1), assignmentCount)
	assert.Equal(t, int64(2), stepCount)
}

func TestListForSubjectCarriesPlanName(t *testing.T) {
	db := setupTestDB(t)
	svc := newServiceOverDB(t, db)
	subject := seedDropshipper(t, db)
	plan := seedPlan(t, db, 1, true)

	_, err := svc.Assign(context.Background(), subject, plan.ID)
	require.NoError(t, err)

	listed, err := svc.ListForSubject(context.Background(), subject)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, plan.Name, listed[0].PlanName)
}

func TestAssignRejectsInactivePlan(t *testing.T) {
	db := setupTestDB(t)
	svc := newServiceOverDB(t, db)
	subject := seedDropshipper(t, db)
	plan := seedPlan(t, db, 1, false)

	_, err := svc.Assign(context.Background(), subject, plan.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestAssignUnknownPlanAndSubject(t *testing.T) {
	db := setupTestDB(t)
	svc := newServiceOverDB(t, db)
	subject := seedDropshipper(t, db)

	_, err := svc.Assign(context.Background(), subject, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	plan := seedPlan(t, db, 1, true)
	ghost := Subject{ID: uuid.New(), Type: enums.SubjectTypeEmployee}
	_, err = svc.Assign(context.Background(), ghost, plan.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAssignRejectsInvalidSubject(t *testing.T) {
	db := setupTestDB(t)
	svc := newServiceOverDB(t, db)

	_, err := svc.Assign(context.Background(), Subject{ID: uuid.New(), Type: "vendor"}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Assign(context.Background(), Subject{Type: enums.SubjectTypeEmployee}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRemoveCascadesAndIsSafeToRepeat(t *testing.T) {
	db := setupTestDB(t)
	svc := newServiceOverDB(t, db)
	subject := seedDropshipper(t, db)
	plan := seedPlan(t, db, 3, true)

	_, err := svc.Assign(context.Background(), subject, plan.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), subject, plan.ID))

	var stepCount int64
	require.NoError(t, db.Model(&models.AssignedStep{}).Count(&stepCount).Error)
	assert.Zero(t, stepCount)

	listed, err := svc.ListForSubject(context.Background(), subject)
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Second removal reports not found instead of failing hard.
	err = svc.Remove(context.Background(), subject, plan.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestProgressPercentRoundsCompletedRatio(t *testing.T) {
	db := setupTestDB(t)
	svc := newServiceOverDB(t, db)
	subject := seedDropshipper(t, db)
	plan := seedPlan(t, db, 3, true)

	result, err := svc.Assign(context.Background(), subject, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assignment.Progress.Percent)

	// Complete step 2.
	err = db.Model(&models.AssignedStep{}).
		Where("assignment_id = ? AND step_number = ?", result.Assignment.ID, 2).
		Update("status", enums.StepStatusCompleted).Error
	require.NoError(t, err)

	listed, err := svc.ListForSubject(context.Background(), subject)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 1, listed[0].Progress.CompletedCount)
	assert.Equal(t, 3, listed[0].Progress.TotalCount)
	assert.Equal(t, 33, listed[0].Progress.Percent)

	// Completing the same step again changes nothing.
	err = db.Model(&models.AssignedStep{}).
		Where("assignment_id = ? AND step_number = ?", result.Assignment.ID, 2).
		Update("status", enums.StepStatusCompleted).Error
	require.NoError(t, err)

	listed, err = svc.ListForSubject(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, 33, listed[0].Progress.Percent)

	var stepCount int64
	require.NoError(t, db.Model(&models.AssignedStep{}).Count(&stepCount).Error)
	assert.Equal(t, int64(3), stepCount)
}

func TestSummarizeProgressEmptySet(t *testing.T) {
	summary := SummarizeProgress(nil)
	assert.Equal(t, 0, summary.Percent)
	assert.Equal(t, 0, summary.TotalCount)
}

func TestStepWithPendingFlagAndNoNote(t *testing.T) {
	note := ""
	step := models.AssignedStep{ClientPending: true, ClientPendingNote: &note}
	dto := FromStepModel(&step)
	assert.Equal(t, "No notes provided", dto.ClientPendingNote)

	step.ClientPending = false
	dto = FromStepModel(&step)
	assert.Empty(t, dto.ClientPendingNote)
}

package comments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:comments-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`CREATE TABLE comments (
  id TEXT PRIMARY KEY,
  subject_id TEXT NOT NULL,
  subject_type TEXT NOT NULL,
  plan_id TEXT NOT NULL,
  step_id TEXT NOT NULL,
  text TEXT NOT NULL,
  created_at DATETIME NOT NULL
)`).Error
	require.NoError(t, err)
	return db
}

func seedComment(t *testing.T, db *gorm.DB, subjectID, planID, stepID uuid.UUID, text string, at time.Time) models.Comment {
	t.Helper()

	comment := models.Comment{
		ID:          uuid.New(),
		SubjectID:   subjectID,
		SubjectType: enums.SubjectTypeDropshipper,
		PlanID:      planID,
		StepID:      stepID,
		Text:        text,
		CreatedAt:   at,
	}
	require.NoError(t, db.Create(&comment).Error)
	return comment
}

func TestListReturnsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	subjectID, planID, stepID := uuid.New(), uuid.New(), uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	seedComment(t, db, subjectID, planID, stepID, "first", base)
	seedComment(t, db, subjectID, planID, stepID, "second", base.Add(time.Minute))
	seedComment(t, db, subjectID, planID, stepID, "third", base.Add(2*time.Minute))

	rows, next, err := repo.List(context.Background(), listParams{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Nil(t, next)
	assert.Equal(t, "third", rows[0].Text)
	assert.Equal(t, "first", rows[2].Text)
}

func TestListFiltersByScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	planA, planB := uuid.New(), uuid.New()
	subjectA, subjectB := uuid.New(), uuid.New()
	stepA, stepB := uuid.New(), uuid.New()
	now := time.Now().UTC()
	seedComment(t, db, subjectA, planA, stepA, "on plan a", now)
	seedComment(t, db, subjectB, planB, stepB, "on plan b", now)

	rows, _, err := repo.List(context.Background(), listParams{PlanID: planA})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "on plan a", rows[0].Text)

	rows, _, err = repo.List(context.Background(), listParams{
		SubjectID:   subjectB,
		SubjectType: enums.SubjectTypeDropshipper,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "on plan b", rows[0].Text)

	rows, _, err = repo.List(context.Background(), listParams{StepID: stepB})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "on plan b", rows[0].Text)
}

func TestListPaginatesWithCursor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	subjectID, planID, stepID := uuid.New(), uuid.New(), uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		seedComment(t, db, subjectID, planID, stepID, fmt.Sprintf("comment %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	first, next, err := repo.List(context.Background(), listParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, next)
	assert.Equal(t, "comment 4", first[0].Text)
	assert.Equal(t, "comment 3", first[1].Text)

	second, next, err := repo.List(context.Background(), listParams{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.NotNil(t, next)
	assert.Equal(t, "comment 2", second[0].Text)
	assert.Equal(t, "comment 1", second[1].Text)

	last, next, err := repo.List(context.Background(), listParams{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Nil(t, next)
	assert.Equal(t, "comment 0", last[0].Text)
}

func TestFetchAllReturnsInsertionOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	subjectID, planID, stepID := uuid.New(), uuid.New(), uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	seedComment(t, db, subjectID, planID, stepID, "oldest", base)
	seedComment(t, db, subjectID, planID, stepID, "newest", base.Add(time.Hour))

	rows, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "oldest", rows[0].Text)
	assert.Equal(t, "newest", rows[1].Text)
}

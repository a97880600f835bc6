package comments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/pagination"
)

type fakeCommentRepo struct {
	created    []*models.Comment
	listParams *listParams
	listRows   []models.Comment
	listNext   *pagination.Cursor
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	comment.CreatedAt = time.Now()
	f.created = append(f.created, comment)
	return nil
}

func (f *fakeCommentRepo) List(_ context.Context, params listParams) ([]models.Comment, *pagination.Cursor, error) {
	f.listParams = &params
	return f.listRows, f.listNext, nil
}

func validAddInput() AddInput {
	return AddInput{
		SubjectID:   uuid.New(),
		SubjectType: enums.SubjectTypeDropshipper,
		PlanID:      uuid.New(),
		StepID:      uuid.New(),
		Text:        "please retake the storefront screenshot",
	}
}

func TestAddTrimsTextAndCreatesRow(t *testing.T) {
	repo := &fakeCommentRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	input := validAddInput()
	input.Text = "  looks good, move on  "
	dto, err := svc.Add(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "looks good, move on", dto.Text)
	assert.Equal(t, input.StepID, dto.StepID)
	require.Len(t, repo.created, 1)
	assert.NotEqual(t, uuid.Nil, dto.ID)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	repo := &fakeCommentRepo{}
	svc, err := NewService(repo)
	require.NoError(t, err)

	cases := map[string]func(*AddInput){
		"invalid subject type": func(in *AddInput) { in.SubjectType = "supplier" },
		"nil subject id":       func(in *AddInput) { in.SubjectID = uuid.Nil },
		"nil plan id":          func(in *AddInput) { in.PlanID = uuid.Nil },
		"nil step id":          func(in *AddInput) { in.StepID = uuid.Nil },
		"blank text":           func(in *AddInput) { in.Text = "   " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validAddInput()
			mutate(&input)
			_, err := svc.Add(context.Background(), input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
	assert.Empty(t, repo.created)
}

func TestListPassesCursorThrough(t *testing.T) {
	next := pagination.Cursor{CreatedAt: time.Now().UTC().Truncate(time.Millisecond), ID: uuid.New()}
	repo := &fakeCommentRepo{
		listRows: []models.Comment{{ID: uuid.New(), Text: "a"}},
		listNext: &next,
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	incoming := pagination.Cursor{CreatedAt: time.Now().UTC().Add(-time.Hour), ID: uuid.New()}
	result, err := svc.List(context.Background(), ListParams{
		PlanID: uuid.New(),
		Cursor: pagination.EncodeCursor(incoming),
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, pagination.EncodeCursor(next), result.Cursor)

	require.NotNil(t, repo.listParams.Cursor)
	assert.Equal(t, incoming.ID, repo.listParams.Cursor.ID)
	assert.True(t, incoming.CreatedAt.Equal(repo.listParams.Cursor.CreatedAt))
}

func TestListRejectsMalformedCursor(t *testing.T) {
	svc, err := NewService(&fakeCommentRepo{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListParams{Cursor: "not-base64!!"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListWithoutNextPageReturnsEmptyCursor(t *testing.T) {
	svc, err := NewService(&fakeCommentRepo{})
	require.NoError(t, err)

	result, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Cursor)
}

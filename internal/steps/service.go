package steps

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/internal/assignments"
	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
)

type stepRepository interface {
	FindOwned(ctx context.Context, subject assignments.Subject, stepID uuid.UUID) (*models.AssignedStep, error)
	UpdateFields(ctx context.Context, stepID uuid.UUID, fields map[string]any) error
}

// StatusChange reports the outcome of a status mutation so callers can offer
// undo.
type StatusChange struct {
	PreviousStatus enums.StepStatus `json:"previous_status"`
	Status         enums.StepStatus `json:"status"`
}

// Service owns the per-step state machine and its orthogonal flags.
type Service interface {
	SetStatus(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, rawStatus string) (*StatusChange, error)
	SetClientPending(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, pending bool, note *string) error
	UpsertClientPendingNote(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, note string) error
	ClearClientPendingNote(ctx context.Context, subject assignments.Subject, stepID uuid.UUID) error
	UpdateCustomDescription(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, description *string) error
	AttachCustomImage(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, imageURL string) error
	RemoveCustomImage(ctx context.Context, subject assignments.Subject, stepID uuid.UUID) error
}

type service struct {
	repo stepRepository
}

// NewService builds a step progress service.
func NewService(repo stepRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "step repository required")
	}
	return &service{repo: repo}, nil
}

// SetStatus moves the step to any of the three statuses. Transitions are not
// monotonic: completed back to open is a legal correction.
func (s *service) SetStatus(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, rawStatus string) (*StatusChange, error) {
	status, err := enums.ParseStepStatus(rawStatus)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidStatus, err, "status must be one of open, in_process, completed")
	}

	step, err := s.findOwned(ctx, subject, stepID)
	if err != nil {
		return nil, err
	}

	previous := step.Status
	if err := s.repo.UpdateFields(ctx, step.ID, map[string]any{"status": status}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update step status")
	}

	return &StatusChange{PreviousStatus: previous, Status: status}, nil
}

// SetClientPending toggles the blocked-on-client flag and, in the same write,
// records the note. The flag is orthogonal to status and never changes it.
func (s *service) SetClientPending(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, pending bool, note *string) error {
	step, err := s.findOwned(ctx, subject, stepID)
	if err != nil {
		return err
	}

	fields := map[string]any{"client_pending": pending}
	if pending && note != nil {
		fields["client_pending_note"] = strings.TrimSpace(*note)
	}
	if !pending {
		fields["client_pending_note"] = nil
	}

	if err := s.repo.UpdateFields(ctx, step.ID, fields); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update client pending")
	}
	return nil
}

// UpsertClientPendingNote replaces the note text without touching the flag or
// the status.
func (s *service) UpsertClientPendingNote(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, note string) error {
	step, err := s.findOwned(ctx, subject, stepID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateFields(ctx, step.ID, map[string]any{"client_pending_note": strings.TrimSpace(note)}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update client pending note")
	}
	return nil
}

// ClearClientPendingNote wipes the note text. Lowering the pending flag is
// the caller's decision, not a side effect here.
func (s *service) ClearClientPendingNote(ctx context.Context, subject assignments.Subject, stepID uuid.UUID) error {
	step, err := s.findOwned(ctx, subject, stepID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateFields(ctx, step.ID, map[string]any{"client_pending_note": nil}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear client pending note")
	}
	return nil
}

// UpdateCustomDescription sets or clears the subject-specific note shown next
// to the copied template description.
func (s *service) UpdateCustomDescription(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, description *string) error {
	step, err := s.findOwned(ctx, subject, stepID)
	if err != nil {
		return err
	}

	var value any
	if description != nil && strings.TrimSpace(*description) != "" {
		value = strings.TrimSpace(*description)
	}

	if err := s.repo.UpdateFields(ctx, step.ID, map[string]any{"custom_description": value}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update custom description")
	}
	return nil
}

// AttachCustomImage stores the uploaded image reference; storage itself lives
// elsewhere, only the URL matters here.
func (s *service) AttachCustomImage(ctx context.Context, subject assignments.Subject, stepID uuid.UUID, imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "image url required")
	}

	step, err := s.findOwned(ctx, subject, stepID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateFields(ctx, step.ID, map[string]any{"custom_image_url": imageURL}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach custom image")
	}
	return nil
}

// RemoveCustomImage clears the image reference without touching status.
func (s *service) RemoveCustomImage(ctx context.Context, subject assignments.Subject, stepID uuid.UUID) error {
	step, err := s.findOwned(ctx, subject, stepID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateFields(ctx, step.ID, map[string]any{"custom_image_url": nil}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove custom image")
	}
	return nil
}

func (s *service) findOwned(ctx context.Context, subject assignments.Subject, stepID uuid.UUID) (*models.AssignedStep, error) {
	if !subject.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subject type")
	}
	if stepID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "step id required")
	}

	step, err := s.repo.FindOwned(ctx, subject, stepID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "step not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find step")
	}
	return step, nil
}

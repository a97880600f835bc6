package assignments

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
)

// Subject identifies one assignable entity.
type Subject struct {
	ID   uuid.UUID
	Type enums.SubjectType
}

// AssignmentDTO exposes an assignment with its steps and progress summary.
type AssignmentDTO struct {
	ID        uuid.UUID         `json:"id"`
	PlanID    uuid.UUID         `json:"plan_id"`
	PlanName  string            `json:"plan_name"`
	Steps     []AssignedStepDTO `json:"steps"`
	Progress  ProgressSummary   `json:"progress"`
	CreatedAt time.Time         `json:"created_at"`
}

// AssignedStepDTO exposes one mutable progress step.
type AssignedStepDTO struct {
	ID                uuid.UUID        `json:"id"`
	StepNumber        int              `json:"step_number"`
	Status            enums.StepStatus `json:"status"`
	Description       string           `json:"description"`
	ReferenceImageURL *string          `json:"reference_image_url,omitempty"`
	CustomDescription *string          `json:"custom_description,omitempty"`
	CustomImageURL    *string          `json:"custom_image_url,omitempty"`
	ClientPending     bool             `json:"client_pending"`
	ClientPendingNote string           `json:"client_pending_note,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ProgressSummary is derived from step statuses, never stored.
type ProgressSummary struct {
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
	Percent        int `json:"percent"`
}

// AssignResult reports whether Assign created rows or found existing ones.
type AssignResult struct {
	Assignment *AssignmentDTO `json:"assignment"`
	Created    bool           `json:"created"`
}

const noNotesPlaceholder = "No notes provided"

// FromAssignmentModel maps an assignment and its plan name into a DTO.
func FromAssignmentModel(m *models.Assignment, planName string) *AssignmentDTO {
	if m == nil {
		return nil
	}

	dto := &AssignmentDTO{
		ID:        m.ID,
		PlanID:    m.PlanID,
		PlanName:  planName,
		Steps:     make([]AssignedStepDTO, 0, len(m.Steps)),
		CreatedAt: m.CreatedAt,
	}
	for i := range m.Steps {
		dto.Steps = append(dto.Steps, FromStepModel(&m.Steps[i]))
	}
	dto.Progress = SummarizeProgress(m.Steps)
	return dto
}

// FromStepModel maps one assigned step. A pending step with no note reads as
// "No notes provided" so admins see the gap instead of an empty field.
func FromStepModel(m *models.AssignedStep) AssignedStepDTO {
	note := ""
	if m.ClientPendingNote != nil {
		note = *m.ClientPendingNote
	}
	if m.ClientPending && note == "" {
		note = noNotesPlaceholder
	}

	return AssignedStepDTO{
		ID:                m.ID,
		StepNumber:        m.StepNumber,
		Status:            m.Status,
		Description:       m.Description,
		ReferenceImageURL: m.ReferenceImageURL,
		CustomDescription: m.CustomDescription,
		CustomImageURL:    m.CustomImageURL,
		ClientPending:     m.ClientPending,
		ClientPendingNote: note,
		UpdatedAt:         m.UpdatedAt,
	}
}

// SummarizeProgress computes the completed/total ratio. Zero steps yields
// zero percent rather than a divide-by-zero.
func SummarizeProgress(steps []models.AssignedStep) ProgressSummary {
	summary := ProgressSummary{TotalCount: len(steps)}
	for _, step := range steps {
		if step.Status == enums.StepStatusCompleted {
			summary.CompletedCount++
		}
	}
	if summary.TotalCount > 0 {
		summary.Percent = int(math.Round(float64(summary.CompletedCount) / float64(summary.TotalCount) * 100))
	}
	return summary
}

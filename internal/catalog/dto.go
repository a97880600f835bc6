package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
)

// PlanDTO exposes a plan template with its denormalized step count.
type PlanDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	Tags        []string        `json:"tags"`
	StepsCount  int             `json:"steps_count"`
	Steps       []StepDTO       `json:"steps,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StepDTO exposes a template step.
type StepDTO struct {
	StepNumber        int     `json:"step_number"`
	Description       string  `json:"description"`
	ReferenceImageURL *string `json:"reference_image_url,omitempty"`
}

// CreatePlanInput holds creation-time data for a new plan template.
type CreatePlanInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Tags        []string
}

// UpdatePlanInput captures the mutable plan fields; nil means keep.
type UpdatePlanInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Active      *bool
	Tags        *[]string
}

// StepInput holds data for adding or updating a template step.
type StepInput struct {
	StepNumber        int
	Description       string
	ReferenceImageURL *string
}

// FromPlanModel maps the persisted plan into a DTO.
func FromPlanModel(m *models.PlanTemplate) *PlanDTO {
	if m == nil {
		return nil
	}

	dto := &PlanDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Active:      m.Active,
		Tags:        []string(m.Tags),
		StepsCount:  len(m.Steps),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, step := range m.Steps {
		dto.Steps = append(dto.Steps, StepDTO{
			StepNumber:        step.StepNumber,
			Description:       step.Description,
			ReferenceImageURL: step.ReferenceImageURL,
		})
	}
	return dto
}

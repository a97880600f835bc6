package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PlanTemplate is a reusable onboarding plan definition. Assignments copy its
// steps; editing the template later never rewrites already-assigned steps.
type PlanTemplate struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	Tags        pq.StringArray  `gorm:"column:tags;type:text[];default:ARRAY[]::text[]"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Steps []StepTemplate `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

// StepTemplate is one ordered step inside a plan template. StepNumber is a
// stable identifier supplied by the admin, not a positional index; deleting a
// step renumbers nothing.
type StepTemplate struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PlanID            uuid.UUID `gorm:"column:plan_id;type:uuid;not null;uniqueIndex:idx_step_templates_plan_number"`
	StepNumber        int       `gorm:"column:step_number;not null;uniqueIndex:idx_step_templates_plan_number"`
	Description       string    `gorm:"column:description;not null"`
	ReferenceImageURL *string   `gorm:"column:reference_image_url"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

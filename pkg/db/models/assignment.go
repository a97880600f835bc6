package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
)

// Assignment binds a plan template to a subject. At most one assignment
// exists per (subject, plan); re-assigning is treated as a no-op success.
type Assignment struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubjectID   uuid.UUID         `gorm:"column:subject_id;type:uuid;not null;uniqueIndex:idx_assignments_subject_plan"`
	SubjectType enums.SubjectType `gorm:"column:subject_type;not null;uniqueIndex:idx_assignments_subject_plan"`
	PlanID      uuid.UUID         `gorm:"column:plan_id;type:uuid;not null;uniqueIndex:idx_assignments_subject_plan"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`

	Plan  *PlanTemplate  `gorm:"foreignKey:PlanID"`
	Steps []AssignedStep `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
}

// AssignedStep is the mutable unit of progress. Description and reference
// image are copied from the step template at assignment time; the template is
// a source, not a live reference.
type AssignedStep struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AssignmentID      uuid.UUID        `gorm:"column:assignment_id;type:uuid;not null;uniqueIndex:idx_assigned_steps_assignment_number"`
	StepNumber        int              `gorm:"column:step_number;not null;uniqueIndex:idx_assigned_steps_assignment_number"`
	Status            enums.StepStatus `gorm:"column:status;not null;default:'open'"`
	Description       string           `gorm:"column:description;not null"`
	ReferenceImageURL *string          `gorm:"column:reference_image_url"`
	CustomDescription *string          `gorm:"column:custom_description"`
	CustomImageURL    *string          `gorm:"column:custom_image_url"`
	ClientPending     bool             `gorm:"column:client_pending;not null;default:false"`
	ClientPendingNote *string          `gorm:"column:client_pending_note"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

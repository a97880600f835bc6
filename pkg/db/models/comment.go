package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
)

// Comment is an append-only feedback entry tied to a (subject, plan, step)
// triple. Rows are never edited through this service, but the watch engine
// tolerates stores that rewrite created_at in place.
type Comment struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubjectID   uuid.UUID         `gorm:"column:subject_id;type:uuid;not null;index:idx_comments_scope"`
	SubjectType enums.SubjectType `gorm:"column:subject_type;not null;index:idx_comments_scope"`
	PlanID      uuid.UUID         `gorm:"column:plan_id;type:uuid;not null;index:idx_comments_scope"`
	StepID      uuid.UUID         `gorm:"column:step_id;type:uuid;not null"`
	Text        string            `gorm:"column:text;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Dropshipper is an external seller being onboarded.
type Dropshipper struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Email     string     `gorm:"column:email;not null;uniqueIndex"`
	Phone     *string    `gorm:"column:phone"`
	Active    bool       `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}

// Employee is an internal staff member being onboarded. Kept as a separate
// table from dropshippers; both act as assignment subjects.
type Employee struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string     `gorm:"column:name;not null"`
	Email      string     `gorm:"column:email;not null;uniqueIndex"`
	Department *string    `gorm:"column:department"`
	Active     bool       `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  *time.Time `gorm:"column:deleted_at"`
}

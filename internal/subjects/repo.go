package subjects

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
)

// Repository resolves subject identities against the dropshipper and
// employee directories.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to subject lookups.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether the subject is present and not soft-deleted.
func (r *Repository) Exists(ctx context.Context, subjectType enums.SubjectType, subjectID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx)

	switch subjectType {
	case enums.SubjectTypeDropshipper:
		query = query.Model(&models.Dropshipper{})
	case enums.SubjectTypeEmployee:
		query = query.Model(&models.Employee{})
	default:
		return false, fmt.Errorf("unknown subject type %q", subjectType)
	}

	err := query.Where("id = ? AND deleted_at IS NULL", subjectID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

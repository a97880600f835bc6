package watch

import (
	"context"

	"gorm.io/gorm"

	"github.com/rvillegas/onboardtrack-backend/pkg/db/models"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
)

// Repository answers the aggregate count queries behind the dashboard stats.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to the stats queries.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CollectStats counts assignments, steps by status, client-pending steps, and
// comments in one pass.
func (r *Repository) CollectStats(ctx context.Context) (*StatsSnapshot, error) {
	snapshot := &StatsSnapshot{}

	if err := r.db.WithContext(ctx).Model(&models.Assignment{}).Count(&snapshot.Assignments).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status enums.StepStatus
		Count  int64
	}
	var byStatus []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.AssignedStep{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		switch row.Status {
		case enums.StepStatusOpen:
			snapshot.StepsOpen = row.Count
		case enums.StepStatusInProcess:
			snapshot.StepsInProcess = row.Count
		case enums.StepStatusCompleted:
			snapshot.StepsCompleted = row.Count
		}
	}

	err = r.db.WithContext(ctx).
		Model(&models.AssignedStep{}).
		Where("client_pending = ?", true).
		Count(&snapshot.PendingOnClient).Error
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Count(&snapshot.Comments).Error; err != nil {
		return nil, err
	}
	return snapshot, nil
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rasyidev/habitpoint/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryFilter narrows archived goal history. StartDate/EndDate are
// inclusive, zero values mean unbounded; TaskID nil means all tasks.
type HistoryFilter struct {
	UserID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	TaskID    *uint
}

type GoalRepository interface {
	ActiveDefinitions(ctx context.Context) ([]model.GoalDefinition, error)
	DefinitionByTask(ctx context.Context, taskID uint) (*model.GoalDefinition, error)

	// EnsureProgress is the read-or-initialize path: it inserts seed if no
	// row exists for its (user, task, date) key and returns the surviving
	// row. Concurrent first reads converge on a single row through the
	// unique key.
	EnsureProgress(ctx context.Context, seed *model.GoalProgress) (*model.GoalProgress, error)
	FindProgress(ctx context.Context, userID uuid.UUID, taskID uint, date time.Time) (*model.GoalProgress, error)
	SaveProgress(ctx context.Context, p *model.GoalProgress, currentValue decimal.Decimal, status model.GoalStatus, completedAt *time.Time) error

	// ArchiveUserGoals moves one user's live rows for date into history
	// inside a single transaction.
	ArchiveUserGoals(ctx context.Context, userID uuid.UUID, date time.Time, toHistory func(model.GoalProgress) model.GoalHistory) (int, error)

	HistoryPage(ctx context.Context, f HistoryFilter, limit, offset int) ([]model.GoalHistory, error)
	HistoryRange(ctx context.Context, f HistoryFilter) ([]model.GoalHistory, error)
	HistoryCount(ctx context.Context, f HistoryFilter) (int64, error)
}

type goalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) ActiveDefinitions(ctx context.Context) ([]model.GoalDefinition, error) {
	var defs []model.GoalDefinition
	if err := r.db.WithContext(ctx).
		Preload("Task").
		Joins("JOIN tasks ON tasks.id = goal_definitions.task_id").
		Where("goal_definitions.is_active = ?", true).
		Order("tasks.display_order ASC").
		Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *goalRepository) DefinitionByTask(ctx context.Context, taskID uint) (*model.GoalDefinition, error) {
	var def model.GoalDefinition
	if err := r.db.WithContext(ctx).
		Preload("Task").
		Where("task_id = ? AND is_active = ?", taskID, true).
		First(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *goalRepository) EnsureProgress(ctx context.Context, seed *model.GoalProgress) (*model.GoalProgress, error) {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "task_id"}, {Name: "goal_date"}},
		DoNothing: true,
	}).Create(seed).Error; err != nil {
		return nil, err
	}

	// Re-read so a lost insert race still yields the winning row.
	return r.FindProgress(ctx, seed.UserID, seed.TaskID, seed.GoalDate)
}

func (r *goalRepository) FindProgress(ctx context.Context, userID uuid.UUID, taskID uint, date time.Time) (*model.GoalProgress, error) {
	var p model.GoalProgress
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND task_id = ? AND goal_date = ?", userID, taskID, date).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *goalRepository) SaveProgress(ctx context.Context, p *model.GoalProgress, currentValue decimal.Decimal, status model.GoalStatus, completedAt *time.Time) error {
	updates := map[string]interface{}{
		"current_value": currentValue,
		"status":        status,
		"completed_at":  completedAt,
	}
	if err := r.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return err
	}

	p.CurrentValue = currentValue
	p.Status = status
	p.CompletedAt = completedAt
	return nil
}

func (r *goalRepository) ArchiveUserGoals(ctx context.Context, userID uuid.UUID, date time.Time, toHistory func(model.GoalProgress) model.GoalHistory) (int, error) {
	archived := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var live []model.GoalProgress
		if err := tx.
			Where("user_id = ? AND goal_date = ?", userID, date).
			Find(&live).Error; err != nil {
			return err
		}

		if len(live) == 0 {
			return nil
		}

		rows := make([]model.GoalHistory, 0, len(live))
		for _, p := range live {
			rows = append(rows, toHistory(p))
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		if err := tx.
			Where("user_id = ? AND goal_date = ?", userID, date).
			Delete(&model.GoalProgress{}).Error; err != nil {
			return err
		}

		archived = len(rows)
		return nil
	})
	return archived, err
}

func applyHistoryFilter(db *gorm.DB, f HistoryFilter) *gorm.DB {
	db = db.Where("user_id = ?", f.UserID)
	if !f.StartDate.IsZero() {
		db = db.Where("goal_date >= ?", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		db = db.Where("goal_date <= ?", f.EndDate)
	}
	if f.TaskID != nil {
		db = db.Where("task_id = ?", *f.TaskID)
	}
	return db
}

func (r *goalRepository) HistoryPage(ctx context.Context, f HistoryFilter, limit, offset int) ([]model.GoalHistory, error) {
	var rows []model.GoalHistory
	if err := applyHistoryFilter(r.db.WithContext(ctx).Model(&model.GoalHistory{}), f).
		Preload("Task").
		Order("goal_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *goalRepository) HistoryRange(ctx context.Context, f HistoryFilter) ([]model.GoalHistory, error) {
	var rows []model.GoalHistory
	if err := applyHistoryFilter(r.db.WithContext(ctx).Model(&model.GoalHistory{}), f).
		Order("goal_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *goalRepository) HistoryCount(ctx context.Context, f HistoryFilter) (int64, error) {
	var count int64
	if err := applyHistoryFilter(r.db.WithContext(ctx).Model(&model.GoalHistory{}), f).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

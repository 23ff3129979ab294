package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rasyidev/habitpoint/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository interface {
	// CreateWithScores writes the entry and bumps the per-task and overall
	// score rows in one transaction.
	CreateWithScores(ctx context.Context, entry *model.ProgressEntry) error
	ExistsForDay(ctx context.Context, userID uuid.UUID, taskID uint, date time.Time) (bool, error)
	SumForDay(ctx context.Context, userID uuid.UUID, taskID uint, date time.Time) (decimal.Decimal, error)
	ScoresByUser(ctx context.Context, userID uuid.UUID) ([]model.UserScore, error)
	TopScores(ctx context.Context, taskID *uint, limit int) ([]model.UserScore, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) CreateWithScores(ctx context.Context, entry *model.ProgressEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		if err := upsertScore(tx, entry.UserID, &entry.TaskID, entry.PointsEarned, entry.Value); err != nil {
			return err
		}

		// Overall score row carries points only; per-task values don't
		// share a unit.
		return upsertScore(tx, entry.UserID, nil, entry.PointsEarned, decimal.Zero)
	})
}

func upsertScore(tx *gorm.DB, userID uuid.UUID, taskID *uint, points int, value decimal.Decimal) error {
	if taskID == nil {
		// Partial unique indexes over NULL task_id are not portable, so the
		// overall row is maintained with a read-then-write inside the
		// surrounding transaction.
		var score model.UserScore
		err := tx.Where("user_id = ? AND task_id IS NULL", userID).First(&score).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.UserScore{
				UserID:      userID,
				TotalPoints: points,
				TotalValue:  decimal.Zero,
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&score).
			Update("total_points", gorm.Expr("total_points + ?", points)).Error
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "task_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_points": gorm.Expr("user_scores.total_points + ?", points),
			"total_value":  gorm.Expr("user_scores.total_value + ?", value),
		}),
	}).Create(&model.UserScore{
		UserID:      userID,
		TaskID:      taskID,
		TotalPoints: points,
		TotalValue:  value,
	}).Error
}

func (r *progressRepository) ExistsForDay(ctx context.Context, userID uuid.UUID, taskID uint, date time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ProgressEntry{}).
		Where("user_id = ? AND task_id = ? AND logged_date = ?", userID, taskID, date).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *progressRepository) SumForDay(ctx context.Context, userID uuid.UUID, taskID uint, date time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).Model(&model.ProgressEntry{}).
		Select("SUM(value)").
		Where("user_id = ? AND task_id = ? AND logged_date = ?", userID, taskID, date).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *progressRepository) ScoresByUser(ctx context.Context, userID uuid.UUID) ([]model.UserScore, error) {
	var scores []model.UserScore
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *progressRepository) TopScores(ctx context.Context, taskID *uint, limit int) ([]model.UserScore, error) {
	query := r.db.WithContext(ctx).Preload("User")
	if taskID == nil {
		query = query.Where("task_id IS NULL")
	} else {
		query = query.Where("task_id = ?", *taskID)
	}

	var scores []model.UserScore
	if err := query.Order("total_points DESC").Limit(limit).Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

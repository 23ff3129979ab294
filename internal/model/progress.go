package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProgressEntry is one logged activity for a user/task/calendar day.
// LoggedDate is the canonical day (midnight, UTC) the value was bucketed
// into; the unique index keeps logging idempotent per day.
type ProgressEntry struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_progress_user_task_date,unique,priority:1" json:"user_id"`
	User         User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TaskID       uint            `gorm:"not null;index:idx_progress_user_task_date,unique,priority:2" json:"task_id"`
	Task         Task            `gorm:"foreignKey:TaskID" json:"-"`
	LoggedDate   time.Time       `gorm:"not null;index:idx_progress_user_task_date,unique,priority:3" json:"logged_date"`
	Value        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"value"`
	PointsEarned int             `gorm:"not null" json:"points_earned"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// UserScore is a running points total per user. TaskID nil means the
// overall, cross-task total. Rebuildable from progress entries.
type UserScore struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_score_user_task,unique,priority:1" json:"user_id"`
	User        User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TaskID      *uint           `gorm:"index:idx_score_user_task,unique,priority:2" json:"task_id"`
	TotalPoints int             `gorm:"not null;default:0" json:"total_points"`
	TotalValue  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_value"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

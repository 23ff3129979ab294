package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoalStatus is the state of one user's daily goal.
//
// EXCEEDED carries two meanings depending on the target type: for EXACT and
// MINIMUM goals it means over-achieved (a success), for MAXIMUM goals it
// means the ceiling was crossed (a failure). Archived history rows share the
// same values, so the overload is kept rather than split into new statuses.
type GoalStatus string

const (
	StatusNotStarted GoalStatus = "NOT_STARTED"
	StatusInProgress GoalStatus = "IN_PROGRESS"
	StatusCompleted  GoalStatus = "COMPLETED"
	StatusExceeded   GoalStatus = "EXCEEDED"
)

// Reached reports whether the status counts as having reached the target.
func (s GoalStatus) Reached() bool {
	return s == StatusCompleted || s == StatusExceeded
}

// GoalProgress is a user's live daily tracking record for one task.
// TargetValue is a snapshot of the definition's target taken when the row is
// created; a mid-day target change must not affect a day already in
// progress. CurrentValue is a cache of the progress-entry sum for the day,
// never the source of truth. Rows are deleted once archived.
type GoalProgress struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_goal_progress_key,unique,priority:1" json:"user_id"`
	User         User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TaskID       uint            `gorm:"not null;index:idx_goal_progress_key,unique,priority:2" json:"task_id"`
	Task         Task            `gorm:"foreignKey:TaskID" json:"-"`
	GoalDate     time.Time       `gorm:"not null;index:idx_goal_progress_key,unique,priority:3" json:"goal_date"`
	TargetValue  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"target_value"`
	CurrentValue decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"current_value"`
	Status       GoalStatus      `gorm:"size:20;not null;default:NOT_STARTED" json:"status"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	LastUpdated  time.Time       `gorm:"autoUpdateTime" json:"last_updated"`
}

// GoalHistory is the immutable archived snapshot of a past day's
// GoalProgress. Written only by the archiver, never updated.
type GoalHistory struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_goal_history_key,unique,priority:1;index:idx_goal_history_user_date,priority:1" json:"user_id"`
	User           User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TaskID         uint            `gorm:"not null;index:idx_goal_history_key,unique,priority:2" json:"task_id"`
	Task           Task            `gorm:"foreignKey:TaskID" json:"-"`
	GoalDate       time.Time       `gorm:"not null;index:idx_goal_history_key,unique,priority:3;index:idx_goal_history_user_date,priority:2" json:"goal_date"`
	TargetValue    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"target_value"`
	FinalValue     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"final_value"`
	CompletionRate int             `gorm:"not null" json:"completion_rate"`
	Status         GoalStatus      `gorm:"size:20;not null" json:"status"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	ArchivedAt     time.Time       `gorm:"autoCreateTime" json:"archived_at"`
}

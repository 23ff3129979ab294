package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Task is immutable reference data: the activities users can log against.
type Task struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Unit          string    `gorm:"size:50;not null" json:"unit"`
	PointsPerUnit float64   `gorm:"not null;default:1" json:"points_per_unit"`
	DisplayOrder  int       `gorm:"not null;default:0" json:"display_order"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// GoalDefinition holds the shared daily target for a task. One per task,
// global across users.
type GoalDefinition struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	TaskID      uint            `gorm:"uniqueIndex;not null" json:"task_id"`
	Task        Task            `gorm:"constraint:OnDelete:CASCADE" json:"task"`
	TargetValue decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"target_value"`
	TargetType  TargetType      `gorm:"size:10;not null;default:MINIMUM" json:"target_type"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TargetType governs how a day's logged value is judged against the target.
type TargetType string

const (
	TargetExact   TargetType = "EXACT"   // hit the target precisely
	TargetMinimum TargetType = "MINIMUM" // reach at least the target
	TargetMaximum TargetType = "MAXIMUM" // stay at or under the target
)

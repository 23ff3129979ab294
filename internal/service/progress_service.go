package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rasyidev/habitpoint/internal/model"
	"github.com/rasyidev/habitpoint/internal/repository"
	"github.com/rasyidev/habitpoint/internal/timezone"
	"github.com/rasyidev/habitpoint/pkg/apperror"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LogProgressInput struct {
	TaskID uint            `json:"task_id" binding:"required"`
	Value  decimal.Decimal `json:"value" binding:"required"`
	Date   string          `json:"date"`
}

type LogProgressResult struct {
	ID             uint                  `json:"id"`
	TaskID         uint                  `json:"task_id"`
	TaskName       string                `json:"task_name"`
	Value          decimal.Decimal       `json:"value"`
	PointsEarned   int                   `json:"points_earned"`
	LoggedDate     string                `json:"logged_date"`
	GoalCompletion *GoalCompletionResult `json:"goal_completion,omitempty"`
}

type TaskStat struct {
	TaskID      uint            `json:"task_id"`
	TaskName    string          `json:"task_name"`
	TotalValue  decimal.Decimal `json:"total_value"`
	TotalPoints int             `json:"total_points"`
}

type UserStats struct {
	UserID      uuid.UUID  `json:"user_id"`
	Username    string     `json:"username"`
	TotalPoints int        `json:"total_points"`
	TaskStats   []TaskStat `json:"task_stats"`
}

type ProgressService interface {
	LogProgress(ctx context.Context, userID uuid.UUID, input LogProgressInput) (*LogProgressResult, error)
	GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)
}

type progressService struct {
	progress    repository.ProgressRepository
	tasks       repository.TaskRepository
	users       repository.UserRepository
	goals       GoalService
	leaderboard LeaderboardService
}

// NewProgressService wires the task-logging path. After every accepted log it
// re-runs the completion detector for the affected user/task/day so status
// transitions surface to the caller immediately.
func NewProgressService(progress repository.ProgressRepository, tasks repository.TaskRepository, users repository.UserRepository, goals GoalService, leaderboard LeaderboardService) ProgressService {
	return &progressService{
		progress:    progress,
		tasks:       tasks,
		users:       users,
		goals:       goals,
		leaderboard: leaderboard,
	}
}

func (s *progressService) LogProgress(ctx context.Context, userID uuid.UUID, input LogProgressInput) (*LogProgressResult, error) {
	if input.Value.Sign() <= 0 {
		return nil, fmt.Errorf("value must be positive: %w", apperror.ErrInvalidInput)
	}

	task, err := s.tasks.FindActiveByID(ctx, input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %d not found or inactive: %w", input.TaskID, apperror.ErrNotFound)
		}
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
		}
		return nil, err
	}

	loggedDate, err := s.resolveDate(input.Date, user.Timezone)
	if err != nil {
		return nil, err
	}

	exists, err := s.progress.ExistsForDay(ctx, userID, input.TaskID, loggedDate)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("progress already logged for this task today: %w", apperror.ErrBadRequest)
	}

	value, _ := input.Value.Float64()
	points := int(math.Round(value * task.PointsPerUnit))

	entry := &model.ProgressEntry{
		UserID:       userID,
		TaskID:       input.TaskID,
		LoggedDate:   loggedDate,
		Value:        input.Value,
		PointsEarned: points,
	}
	if err := s.progress.CreateWithScores(ctx, entry); err != nil {
		return nil, err
	}

	// Scores changed; cached standings are stale.
	s.leaderboard.InvalidateCache(ctx, input.TaskID)

	completion, err := s.goals.CheckGoalCompletion(ctx, userID, input.TaskID, &loggedDate, user.Timezone)
	if err != nil {
		return nil, err
	}

	return &LogProgressResult{
		ID:             entry.ID,
		TaskID:         entry.TaskID,
		TaskName:       task.Name,
		Value:          entry.Value,
		PointsEarned:   entry.PointsEarned,
		LoggedDate:     loggedDate.Format(timezone.DateLayout),
		GoalCompletion: completion,
	}, nil
}

func (s *progressService) resolveDate(raw, tz string) (time.Time, error) {
	if raw == "" {
		return timezone.LocalDate(tz), nil
	}

	parsed, err := time.Parse(timezone.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", raw, apperror.ErrInvalidInput)
	}
	return timezone.Normalize(parsed), nil
}

func (s *progressService) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
		}
		return nil, err
	}

	scores, err := s.progress.ScoresByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		UserID:    user.ID,
		Username:  user.Username,
		TaskStats: []TaskStat{},
	}

	for _, score := range scores {
		if score.TaskID == nil {
			stats.TotalPoints = score.TotalPoints
			continue
		}

		task, err := s.tasks.FindByID(ctx, *score.TaskID)
		if err != nil {
			return nil, err
		}
		stats.TaskStats = append(stats.TaskStats, TaskStat{
			TaskID:      *score.TaskID,
			TaskName:    task.Name,
			TotalValue:  score.TotalValue,
			TotalPoints: score.TotalPoints,
		})
	}

	return stats, nil
}

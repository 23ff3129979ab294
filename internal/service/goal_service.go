package service

import (
	"context"
	"errors"
	"fmt"
	"log"
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

// DailyGoalProgress is the per-task view returned by the daily tracker.
type DailyGoalProgress struct {
	ID             uint             `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	TaskID         uint             `json:"task_id"`
	TaskName       string           `json:"task_name"`
	Unit           string           `json:"unit"`
	GoalDate       string           `json:"goal_date"`
	CurrentValue   decimal.Decimal  `json:"current_value"`
	TargetValue    decimal.Decimal  `json:"target_value"`
	TargetType     model.TargetType `json:"target_type"`
	Status         model.GoalStatus `json:"status"`
	CompletionRate int              `json:"completion_rate"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	LastUpdated    time.Time        `json:"last_updated"`
}

type OverallProgress struct {
	Completed      int `json:"completed"`
	Total          int `json:"total"`
	CompletionRate int `json:"completion_rate"`
}

type DailyGoalsSummary struct {
	GoalDate        string              `json:"goal_date"`
	UserTimezone    string              `json:"user_timezone"`
	LocalTime       string              `json:"local_time"`
	OverallProgress OverallProgress     `json:"overall_progress"`
	Goals           []DailyGoalProgress `json:"goals"`
}

// GoalCompletionResult reports a status transition after a recalculation.
// GoalCompleted is true only on a fresh crossing into a reached state;
// TargetReached is true whenever the new status qualifies.
type GoalCompletionResult struct {
	GoalCompleted  bool             `json:"goal_completed"`
	TargetReached  bool             `json:"target_reached"`
	PreviousStatus model.GoalStatus `json:"previous_status"`
	NewStatus      model.GoalStatus `json:"new_status"`
	CompletionRate int              `json:"completion_rate"`
}

type TimezoneUpdateResult struct {
	UserID        uuid.UUID `json:"user_id"`
	Timezone      string    `json:"timezone"`
	UpdatedAt     time.Time `json:"updated_at"`
	GoalResetTime string    `json:"goal_reset_time"`
	NextGoalReset time.Time `json:"next_goal_reset"`
}

type GoalHistoryQuery struct {
	StartDate time.Time
	EndDate   time.Time
	TaskID    *uint
	Limit     int
	Offset    int
}

type GoalHistoryItem struct {
	GoalDate       string           `json:"goal_date"`
	TaskID         uint             `json:"task_id"`
	TaskName       string           `json:"task_name"`
	TargetValue    decimal.Decimal  `json:"target_value"`
	FinalValue     decimal.Decimal  `json:"final_value"`
	CompletionRate int              `json:"completion_rate"`
	Status         model.GoalStatus `json:"status"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

type HistoryPagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

type StreakSummary struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

type HistorySummary struct {
	TotalDays             int           `json:"total_days"`
	CompletedDays         int           `json:"completed_days"`
	AverageCompletionRate float64       `json:"average_completion_rate"`
	Streak                StreakSummary `json:"streak"`
}

type GoalHistoryResult struct {
	History    []GoalHistoryItem `json:"history"`
	Pagination HistoryPagination `json:"pagination"`
	Summary    HistorySummary    `json:"summary"`
}

type GoalService interface {
	CalculateDailyProgress(ctx context.Context, userID uuid.UUID, date *time.Time, tz string) ([]DailyGoalProgress, error)
	CheckGoalCompletion(ctx context.Context, userID uuid.UUID, taskID uint, date *time.Time, tz string) (*GoalCompletionResult, error)
	GetDailyGoalsForUser(ctx context.Context, userID uuid.UUID, date *time.Time, tz string) (*DailyGoalsSummary, error)
	UpdateUserTimezone(ctx context.Context, userID uuid.UUID, tz string) (*TimezoneUpdateResult, error)
	ArchiveGoalsForDate(ctx context.Context, date time.Time, tz string) error
	GetGoalHistory(ctx context.Context, userID uuid.UUID, query GoalHistoryQuery) (*GoalHistoryResult, error)
}

type goalService struct {
	users    repository.UserRepository
	goals    repository.GoalRepository
	progress repository.ProgressRepository
	now      func() time.Time
}

func NewGoalService(users repository.UserRepository, goals repository.GoalRepository, progress repository.ProgressRepository) GoalService {
	return &goalService{
		users:    users,
		goals:    goals,
		progress: progress,
		now:      time.Now,
	}
}

func (s *goalService) resolveUserContext(ctx context.Context, userID uuid.UUID, date *time.Time, tz string) (string, time.Time, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", time.Time{}, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
		}
		return "", time.Time{}, err
	}

	if tz == "" {
		tz = user.Timezone
	}

	var goalDate time.Time
	if date != nil {
		goalDate = timezone.Normalize(*date)
	} else {
		goalDate = timezone.LocalDate(tz)
	}

	return tz, goalDate, nil
}

func (s *goalService) CalculateDailyProgress(ctx context.Context, userID uuid.UUID, date *time.Time, tz string) ([]DailyGoalProgress, error) {
	_, goalDate, err := s.resolveUserContext(ctx, userID, date, tz)
	if err != nil {
		return nil, err
	}

	defs, err := s.goals.ActiveDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]DailyGoalProgress, 0, len(defs))
	for _, def := range defs {
		view, err := s.recalculate(ctx, userID, def, goalDate)
		if err != nil {
			return nil, err
		}
		results = append(results, *view)
	}

	return results, nil
}

// recalculate runs the read-or-initialize plus recompute cycle for one goal.
// The target snapshot taken at row creation is authoritative for the rest of
// the day; SaveProgress is the only mutation path for live rows.
func (s *goalService) recalculate(ctx context.Context, userID uuid.UUID, def model.GoalDefinition, goalDate time.Time) (*DailyGoalProgress, error) {
	seed := &model.GoalProgress{
		UserID:       userID,
		TaskID:       def.TaskID,
		GoalDate:     goalDate,
		TargetValue:  def.TargetValue,
		CurrentValue: decimal.Zero,
		Status:       model.StatusNotStarted,
	}

	row, err := s.goals.EnsureProgress(ctx, seed)
	if err != nil {
		return nil, err
	}

	currentValue, err := s.progress.SumForDay(ctx, userID, def.TaskID, goalDate)
	if err != nil {
		return nil, err
	}

	calc := CalculateGoalStatus(currentValue, row.TargetValue, def.TargetType, row.CompletedAt, s.now())

	if !currentValue.Equal(row.CurrentValue) || calc.Status != row.Status {
		if err := s.goals.SaveProgress(ctx, row, currentValue, calc.Status, calc.CompletedAt); err != nil {
			return nil, err
		}
	}

	return &DailyGoalProgress{
		ID:             row.ID,
		UserID:         userID,
		TaskID:         def.TaskID,
		TaskName:       def.Task.Name,
		Unit:           def.Task.Unit,
		GoalDate:       goalDate.Format(timezone.DateLayout),
		CurrentValue:   currentValue,
		TargetValue:    row.TargetValue,
		TargetType:     def.TargetType,
		Status:         calc.Status,
		CompletionRate: calc.CompletionRate,
		CompletedAt:    calc.CompletedAt,
		LastUpdated:    row.LastUpdated,
	}, nil
}

func (s *goalService) CheckGoalCompletion(ctx context.Context, userID uuid.UUID, taskID uint, date *time.Time, tz string) (*GoalCompletionResult, error) {
	_, goalDate, err := s.resolveUserContext(ctx, userID, date, tz)
	if err != nil {
		return nil, err
	}

	def, err := s.goals.DefinitionByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No active goal for this task: nothing to check.
			return nil, nil
		}
		return nil, err
	}

	row, err := s.goals.FindProgress(ctx, userID, taskID, goalDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	previousStatus := row.Status

	currentValue, err := s.progress.SumForDay(ctx, userID, taskID, goalDate)
	if err != nil {
		return nil, err
	}

	calc := CalculateGoalStatus(currentValue, row.TargetValue, def.TargetType, row.CompletedAt, s.now())

	if !currentValue.Equal(row.CurrentValue) || calc.Status != row.Status {
		if err := s.goals.SaveProgress(ctx, row, currentValue, calc.Status, calc.CompletedAt); err != nil {
			return nil, err
		}
	}

	return &GoalCompletionResult{
		GoalCompleted:  !previousStatus.Reached() && calc.Status.Reached(),
		TargetReached:  calc.Status.Reached(),
		PreviousStatus: previousStatus,
		NewStatus:      calc.Status,
		CompletionRate: calc.CompletionRate,
	}, nil
}

func (s *goalService) GetDailyGoalsForUser(ctx context.Context, userID uuid.UUID, date *time.Time, tz string) (*DailyGoalsSummary, error) {
	// An explicit timezone must be valid before anything is read from the
	// store; a stored one is trusted as-is.
	if tz != "" && !timezone.IsValid(tz) {
		return nil, fmt.Errorf("timezone %q is not a valid IANA identifier: %w", tz, apperror.ErrInvalidInput)
	}

	userTZ, goalDate, err := s.resolveUserContext(ctx, userID, date, tz)
	if err != nil {
		return nil, err
	}

	goals, err := s.CalculateDailyProgress(ctx, userID, &goalDate, userTZ)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, g := range goals {
		if g.Status.Reached() {
			completed++
		}
	}
	rate := 0
	if len(goals) > 0 {
		rate = int(math.Round(float64(completed) / float64(len(goals)) * 100))
	}

	return &DailyGoalsSummary{
		GoalDate:     goalDate.Format(timezone.DateLayout),
		UserTimezone: userTZ,
		LocalTime:    timezone.LocalTimeString(userTZ, s.now()),
		OverallProgress: OverallProgress{
			Completed:      completed,
			Total:          len(goals),
			CompletionRate: rate,
		},
		Goals: goals,
	}, nil
}

func (s *goalService) UpdateUserTimezone(ctx context.Context, userID uuid.UUID, tz string) (*TimezoneUpdateResult, error) {
	if !timezone.IsValid(tz) {
		return nil, fmt.Errorf("timezone %q is not a valid IANA identifier: %w", tz, apperror.ErrInvalidInput)
	}

	user, err := s.users.UpdateTimezone(ctx, userID, tz)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
		}
		return nil, err
	}

	return &TimezoneUpdateResult{
		UserID:        user.ID,
		Timezone:      user.Timezone,
		UpdatedAt:     user.UpdatedAt,
		GoalResetTime: "00:00 local",
		// Informational only; the archive sweep derives its own schedule.
		NextGoalReset: timezone.NextMidnight(tz, s.now()),
	}, nil
}

func (s *goalService) ArchiveGoalsForDate(ctx context.Context, date time.Time, tz string) error {
	goalDate := timezone.Normalize(date)

	userIDs, err := s.users.FindIDsByTimezone(ctx, tz)
	if err != nil {
		return err
	}

	var errs []error
	for _, userID := range userIDs {
		// One transaction per user: a failure aborts only that user's batch.
		n, err := s.goals.ArchiveUserGoals(ctx, userID, goalDate, archiveRow)
		if err != nil {
			log.Printf("archive failed for user %s on %s: %v", userID, goalDate.Format(timezone.DateLayout), err)
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if n > 0 {
			log.Printf("archived %d goal(s) for user %s on %s", n, userID, goalDate.Format(timezone.DateLayout))
		}
	}

	return errors.Join(errs...)
}

// archiveRow maps a live progress row to its history snapshot. The rate here
// is the plain current/target rounding for every target type; MAXIMUM goals
// keep their inverted rate only while live.
func archiveRow(p model.GoalProgress) model.GoalHistory {
	rate := 0
	if p.TargetValue.Sign() > 0 {
		rate = ratePercent(p.CurrentValue, p.TargetValue)
	}

	return model.GoalHistory{
		UserID:         p.UserID,
		TaskID:         p.TaskID,
		GoalDate:       p.GoalDate,
		TargetValue:    p.TargetValue,
		FinalValue:     p.CurrentValue,
		CompletionRate: rate,
		Status:         p.Status,
		CompletedAt:    p.CompletedAt,
	}
}

func (s *goalService) GetGoalHistory(ctx context.Context, userID uuid.UUID, query GoalHistoryQuery) (*GoalHistoryResult, error) {
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = 30
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	filter := repository.HistoryFilter{
		UserID: userID,
		TaskID: query.TaskID,
	}
	if !query.StartDate.IsZero() {
		filter.StartDate = timezone.Normalize(query.StartDate)
	}
	if !query.EndDate.IsZero() {
		filter.EndDate = timezone.Normalize(query.EndDate)
	}

	page, err := s.goals.HistoryPage(ctx, filter, query.Limit, query.Offset)
	if err != nil {
		return nil, err
	}

	total, err := s.goals.HistoryCount(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Summary stats and streaks cover the whole filtered set, not just the
	// returned page.
	full, err := s.goals.HistoryRange(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]GoalHistoryItem, 0, len(page))
	for _, h := range page {
		items = append(items, GoalHistoryItem{
			GoalDate:       h.GoalDate.Format(timezone.DateLayout),
			TaskID:         h.TaskID,
			TaskName:       h.Task.Name,
			TargetValue:    h.TargetValue,
			FinalValue:     h.FinalValue,
			CompletionRate: h.CompletionRate,
			Status:         h.Status,
			CompletedAt:    h.CompletedAt,
		})
	}

	return &GoalHistoryResult{
		History: items,
		Pagination: HistoryPagination{
			Limit:   query.Limit,
			Offset:  query.Offset,
			Total:   total,
			HasMore: int64(query.Offset+query.Limit) < total,
		},
		Summary: summarizeHistory(full),
	}, nil
}

// summarizeHistory folds the full filtered set, ordered ascending by date.
// Streaks treat the rows as adjacent days even when dates have gaps: a
// streak within the queried window, not a calendar-continuous one.
func summarizeHistory(rows []model.GoalHistory) HistorySummary {
	summary := HistorySummary{TotalDays: len(rows)}
	if len(rows) == 0 {
		return summary
	}

	rateSum := 0
	streak := 0
	for _, h := range rows {
		rateSum += h.CompletionRate
		if h.Status.Reached() {
			summary.CompletedDays++
			streak++
		} else {
			streak = 0
		}
		if streak > summary.Streak.Longest {
			summary.Streak.Longest = streak
		}
	}

	// Current streak counts only if the most recent day qualified.
	if rows[len(rows)-1].Status.Reached() {
		summary.Streak.Current = streak
	}

	avg := float64(rateSum) / float64(len(rows))
	summary.AverageCompletionRate = math.Round(avg*100) / 100

	return summary
}

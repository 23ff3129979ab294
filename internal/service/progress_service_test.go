package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rasyidev/habitpoint/internal/model"
	"github.com/rasyidev/habitpoint/pkg/apperror"
	"github.com/rasyidev/habitpoint/pkg/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgressService(env *testEnv) ProgressService {
	leaderboard := NewLeaderboardService(env.progress, env.tasks, cache.New(nil, 0))
	return NewProgressService(env.progress, env.tasks, env.users, env.svc, leaderboard)
}

func TestLogProgressPointsAndScoreAccumulation(t *testing.T) {
	env := newTestEnv(t)
	svc := newProgressService(env)
	ctx := context.Background()

	user := seedUser(t, env.db, "UTC")
	task := &model.Task{Name: "Cycling", Unit: "km", PointsPerUnit: 2.5, IsActive: true}
	require.NoError(t, env.db.Create(task).Error)

	first, err := svc.LogProgress(ctx, user.ID, LogProgressInput{
		TaskID: task.ID,
		Value:  decimal.NewFromInt(3),
		Date:   "2025-05-10",
	})
	require.NoError(t, err)
	assert.Equal(t, task.ID, first.TaskID)
	assert.Equal(t, "Cycling", first.TaskName)
	assert.Equal(t, 8, first.PointsEarned) // round(3 * 2.5)
	assert.Equal(t, "2025-05-10", first.LoggedDate)
	assert.Nil(t, first.GoalCompletion)

	second, err := svc.LogProgress(ctx, user.ID, LogProgressInput{
		TaskID: task.ID,
		Value:  decimal.NewFromInt(2),
		Date:   "2025-05-11",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, second.PointsEarned)

	var taskScore model.UserScore
	require.NoError(t, env.db.Where("user_id = ? AND task_id = ?", user.ID, task.ID).First(&taskScore).Error)
	assert.Equal(t, 13, taskScore.TotalPoints)
	assert.True(t, taskScore.TotalValue.Equal(decimal.NewFromInt(5)), "total value %s", taskScore.TotalValue)

	var overall model.UserScore
	require.NoError(t, env.db.Where("user_id = ? AND task_id IS NULL", user.ID).First(&overall).Error)
	assert.Equal(t, 13, overall.TotalPoints)
}

func TestLogProgressRejectsSecondEntrySameDay(t *testing.T) {
	env := newTestEnv(t)
	svc := newProgressService(env)
	ctx := context.Background()

	user := seedUser(t, env.db, "UTC")
	task := seedTaskWithGoal(t, env.db, "Reading", 20, model.TargetMinimum)

	input := LogProgressInput{TaskID: task.ID, Value: decimal.NewFromInt(5), Date: "2025-05-10"}
	_, err := svc.LogProgress(ctx, user.ID, input)
	require.NoError(t, err)

	_, err = svc.LogProgress(ctx, user.ID, input)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestLogProgressRejectsNonPositiveValue(t *testing.T) {
	env := newTestEnv(t)
	svc := newProgressService(env)
	ctx := context.Background()

	user := seedUser(t, env.db, "UTC")
	task := seedTaskWithGoal(t, env.db, "Reading", 20, model.TargetMinimum)

	for _, value := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		_, err := svc.LogProgress(ctx, user.ID, LogProgressInput{TaskID: task.ID, Value: value})
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	}
}

func TestLogProgressUnknownOrInactiveTask(t *testing.T) {
	env := newTestEnv(t)
	svc := newProgressService(env)
	ctx := context.Background()

	user := seedUser(t, env.db, "UTC")

	_, err := svc.LogProgress(ctx, user.ID, LogProgressInput{TaskID: 999, Value: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	retired := &model.Task{Name: "Retired", Unit: "units", PointsPerUnit: 1, IsActive: false}
	require.NoError(t, env.db.Create(retired).Error)

	_, err = svc.LogProgress(ctx, user.ID, LogProgressInput{TaskID: retired.ID, Value: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLogProgressUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	svc := newProgressService(env)

	task := seedTaskWithGoal(t, env.db, "Reading", 20, model.TargetMinimum)

	_, err := svc.LogProgress(context.Background(), uuid.New(), LogProgressInput{TaskID: task.ID, Value: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLogProgressRejectsMalformedDate(t *testing.T) {
	env := newTestEnv(t)
	svc := newProgressService(env)

	user := seedUser(t, env.db, "UTC")
	task := seedTaskWithGoal(t, env.db, "Reading", 20, model.TargetMinimum)

	_, err := svc.LogProgress(context.Background(), user.ID, LogProgressInput{
		TaskID: task.ID,
		Value:  decimal.NewFromInt(1),
		Date:   "10-05-2025",
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestLogProgressReportsGoalCompletion(t *testing.T) {
	env := newTestEnv(t)
	svc := newProgressService(env)
	ctx := context.Background()

	user := seedUser(t, env.db, "UTC")
	task := seedTaskWithGoal(t, env.db, "Reading", 20, model.TargetMinimum)

	// The day's goal row exists once the tracker has seen it.
	day := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	_, err := env.svc.CalculateDailyProgress(ctx, user.ID, &day, "")
	require.NoError(t, err)

	result, err := svc.LogProgress(ctx, user.ID, LogProgressInput{
		TaskID: task.ID,
		Value:  decimal.NewFromInt(20),
		Date:   "2025-05-10",
	})
	require.NoError(t, err)
	require.NotNil(t, result.GoalCompletion)
	assert.True(t, result.GoalCompletion.GoalCompleted)
	assert.True(t, result.GoalCompletion.TargetReached)
	assert.Equal(t, model.StatusNotStarted, result.GoalCompletion.PreviousStatus)
	assert.Equal(t, model.StatusCompleted, result.GoalCompletion.NewStatus)
	assert.Equal(t, 100, result.GoalCompletion.CompletionRate)
}

func TestGetUserStats(t *testing.T) {
	env := newTestEnv(t)
	svc := newProgressService(env)
	ctx := context.Background()

	user := seedUser(t, env.db, "UTC")
	reading := seedTaskWithGoal(t, env.db, "Reading", 20, model.TargetMinimum)
	water := seedTaskWithGoal(t, env.db, "Water", 8, model.TargetExact)

	_, err := svc.LogProgress(ctx, user.ID, LogProgressInput{TaskID: reading.ID, Value: decimal.NewFromInt(10), Date: "2025-05-10"})
	require.NoError(t, err)
	_, err = svc.LogProgress(ctx, user.ID, LogProgressInput{TaskID: water.ID, Value: decimal.NewFromInt(4), Date: "2025-05-10"})
	require.NoError(t, err)

	stats, err := svc.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stats.UserID)
	assert.Equal(t, user.Username, stats.Username)
	assert.Equal(t, 14, stats.TotalPoints)
	require.Len(t, stats.TaskStats, 2)

	byName := map[string]TaskStat{}
	for _, stat := range stats.TaskStats {
		byName[stat.TaskName] = stat
	}
	assert.Equal(t, 10, byName["Reading"].TotalPoints)
	assert.Equal(t, 4, byName["Water"].TotalPoints)
	assert.True(t, byName["Water"].TotalValue.Equal(decimal.NewFromInt(4)))
}

func TestGetUserStatsUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	svc := newProgressService(env)

	_, err := svc.GetUserStats(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

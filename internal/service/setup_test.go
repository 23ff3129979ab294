package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rasyidev/habitpoint/internal/model"
	"github.com/rasyidev/habitpoint/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Task{},
		&model.GoalDefinition{},
		&model.ProgressEntry{},
		&model.UserScore{},
		&model.GoalProgress{},
		&model.GoalHistory{},
	))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, timezone string) *model.User {
	t.Helper()

	user := &model.User{
		Username:     "u" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Timezone:     timezone,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTaskWithGoal(t *testing.T, db *gorm.DB, name string, target int64, targetType model.TargetType) *model.Task {
	t.Helper()

	task := &model.Task{Name: name, Unit: "units", PointsPerUnit: 1, IsActive: true}
	require.NoError(t, db.Create(task).Error)

	def := &model.GoalDefinition{
		TaskID:      task.ID,
		TargetValue: decimal.NewFromInt(target),
		TargetType:  targetType,
		IsActive:    true,
	}
	require.NoError(t, db.Create(def).Error)
	return task
}

func seedProgressEntry(t *testing.T, db *gorm.DB, userID uuid.UUID, taskID uint, date time.Time, value float64) {
	t.Helper()

	require.NoError(t, db.Create(&model.ProgressEntry{
		UserID:       userID,
		TaskID:       taskID,
		LoggedDate:   date,
		Value:        decimal.NewFromFloat(value),
		PointsEarned: int(value),
	}).Error)
}

type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	tasks    repository.TaskRepository
	progress repository.ProgressRepository
	goals    repository.GoalRepository
	svc      *goalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		tasks:    repository.NewTaskRepository(db),
		progress: repository.NewProgressRepository(db),
		goals:    repository.NewGoalRepository(db),
	}
	env.svc = NewGoalService(env.users, env.goals, env.progress).(*goalService)
	return env
}

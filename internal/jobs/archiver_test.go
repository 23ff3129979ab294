package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rasyidev/habitpoint/internal/model"
	"github.com/rasyidev/habitpoint/internal/repository"
	"github.com/rasyidev/habitpoint/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSweepFixture(t *testing.T) (*gorm.DB, *GoalArchiver) {
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

	users := repository.NewUserRepository(db)
	goals := service.NewGoalService(users, repository.NewGoalRepository(db), repository.NewProgressRepository(db))
	return db, NewGoalArchiver(goals, users)
}

func seedSweepUser(t *testing.T, db *gorm.DB, tz string) *model.User {
	t.Helper()

	user := &model.User{
		Username:     "u" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Timezone:     tz,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedLiveGoal(t *testing.T, db *gorm.DB, userID uuid.UUID, taskID uint, date time.Time) {
	t.Helper()

	require.NoError(t, db.Create(&model.GoalProgress{
		UserID:       userID,
		TaskID:       taskID,
		GoalDate:     date,
		TargetValue:  decimal.NewFromInt(10),
		CurrentValue: decimal.NewFromInt(10),
		Status:       model.StatusCompleted,
	}).Error)
}

func TestRunSweepArchivesOnlyZonesAtLocalMidnight(t *testing.T) {
	db, archiver := newSweepFixture(t)
	ctx := context.Background()

	task := &model.Task{Name: "Reading", Unit: "pages", PointsPerUnit: 1, IsActive: true}
	require.NoError(t, db.Create(task).Error)

	dubaiUser := seedSweepUser(t, db, "Asia/Dubai")
	nyUser := seedSweepUser(t, db, "America/New_York")

	// 20:30 UTC on May 10 is 00:30 of May 11 in Dubai and 16:30 in New York.
	archiver.now = func() time.Time {
		return time.Date(2025, 5, 10, 20, 30, 0, 0, time.UTC)
	}

	finished := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	seedLiveGoal(t, db, dubaiUser.ID, task.ID, finished)
	seedLiveGoal(t, db, nyUser.ID, task.ID, finished)

	archiver.RunSweep(ctx)

	var archived []model.GoalHistory
	require.NoError(t, db.Find(&archived).Error)
	require.Len(t, archived, 1)
	assert.Equal(t, dubaiUser.ID, archived[0].UserID)
	assert.Equal(t, model.StatusCompleted, archived[0].Status)
	assert.Equal(t, 100, archived[0].CompletionRate)

	var live []model.GoalProgress
	require.NoError(t, db.Find(&live).Error)
	require.Len(t, live, 1)
	assert.Equal(t, nyUser.ID, live[0].UserID)
}

func TestRunSweepSkipsUnknownTimezones(t *testing.T) {
	db, archiver := newSweepFixture(t)

	// A zone that no longer loads must not break the sweep for others.
	broken := seedSweepUser(t, db, "UTC")
	require.NoError(t, db.Model(broken).Update("timezone", "Mars/Olympus").Error)

	archiver.now = func() time.Time {
		return time.Date(2025, 5, 10, 0, 30, 0, 0, time.UTC)
	}

	archiver.RunSweep(context.Background())

	var archived int64
	require.NoError(t, db.Model(&model.GoalHistory{}).Count(&archived).Error)
	assert.Zero(t, archived)
}

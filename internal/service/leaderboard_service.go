package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/rasyidev/habitpoint/internal/repository"
	"github.com/rasyidev/habitpoint/pkg/apperror"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const leaderboardLimit = 100

type LeaderboardEntry struct {
	Rank        int              `json:"rank"`
	UserID      uuid.UUID        `json:"user_id"`
	Username    string           `json:"username"`
	TotalPoints int              `json:"total_points"`
	TotalValue  *decimal.Decimal `json:"total_value,omitempty"`
}

type LeaderboardService interface {
	GetOverallLeaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	GetTaskLeaderboard(ctx context.Context, taskID uint) ([]LeaderboardEntry, error)
	InvalidateCache(ctx context.Context, taskID uint)
}

// Standings change only when progress is logged, so they are served from an
// injected TTL cache and dropped on every log write.
type leaderboardService struct {
	progress repository.ProgressRepository
	tasks    repository.TaskRepository
	cache    Cache
}

// Cache is the TTL-keyed store the leaderboard reads through. Satisfied by
// pkg/cache; nil-safe implementations let tests run without redis.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

func NewLeaderboardService(progress repository.ProgressRepository, tasks repository.TaskRepository, cache Cache) LeaderboardService {
	return &leaderboardService{
		progress: progress,
		tasks:    tasks,
		cache:    cache,
	}
}

func overallCacheKey() string { return "leaderboard:overall" }

func taskCacheKey(id uint) string { return fmt.Sprintf("leaderboard:task:%d", id) }

func (s *leaderboardService) GetOverallLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var cached []LeaderboardEntry
	if hit, err := s.cache.Get(ctx, overallCacheKey(), &cached); err != nil {
		log.Printf("leaderboard cache read failed: %v", err)
	} else if hit {
		return cached, nil
	}

	scores, err := s.progress.TopScores(ctx, nil, leaderboardLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(scores))
	for i, score := range scores {
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			UserID:      score.UserID,
			Username:    score.User.Username,
			TotalPoints: score.TotalPoints,
		})
	}

	if err := s.cache.Set(ctx, overallCacheKey(), entries); err != nil {
		log.Printf("leaderboard cache write failed: %v", err)
	}
	return entries, nil
}

func (s *leaderboardService) GetTaskLeaderboard(ctx context.Context, taskID uint) ([]LeaderboardEntry, error) {
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %d: %w", taskID, apperror.ErrNotFound)
		}
		return nil, err
	}

	var cached []LeaderboardEntry
	if hit, err := s.cache.Get(ctx, taskCacheKey(taskID), &cached); err != nil {
		log.Printf("leaderboard cache read failed: %v", err)
	} else if hit {
		return cached, nil
	}

	scores, err := s.progress.TopScores(ctx, &taskID, leaderboardLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(scores))
	for i, score := range scores {
		value := score.TotalValue
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			UserID:      score.UserID,
			Username:    score.User.Username,
			TotalPoints: score.TotalPoints,
			TotalValue:  &value,
		})
	}

	if err := s.cache.Set(ctx, taskCacheKey(taskID), entries); err != nil {
		log.Printf("leaderboard cache write failed: %v", err)
	}
	return entries, nil
}

func (s *leaderboardService) InvalidateCache(ctx context.Context, taskID uint) {
	if err := s.cache.Delete(ctx, overallCacheKey(), taskCacheKey(taskID)); err != nil {
		log.Printf("leaderboard cache invalidation failed: %v", err)
	}
}

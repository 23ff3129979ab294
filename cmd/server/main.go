package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rasyidev/habitpoint/internal/config"
	"github.com/rasyidev/habitpoint/internal/handler"
	"github.com/rasyidev/habitpoint/internal/jobs"
	"github.com/rasyidev/habitpoint/internal/middleware"
	"github.com/rasyidev/habitpoint/internal/model"
	"github.com/rasyidev/habitpoint/internal/repository"
	"github.com/rasyidev/habitpoint/internal/service"
	"github.com/rasyidev/habitpoint/pkg/cache"
	"github.com/rasyidev/habitpoint/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := seedTasks(db); err != nil {
		log.Fatalf("failed to seed tasks: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	goalRepo := repository.NewGoalRepository(db)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, cfg.DefaultTZ)
	authHandler := handler.NewAuthHandler(authService)

	goalService := service.NewGoalService(userRepo, goalRepo, progressRepo)
	goalHandler := handler.NewGoalHandler(goalService)

	leaderboardCache := cache.New(redisClient, cfg.LeaderboardTTL)
	leaderboardService := service.NewLeaderboardService(progressRepo, taskRepo, leaderboardCache)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)

	progressService := service.NewProgressService(progressRepo, taskRepo, userRepo, goalService, leaderboardService)
	progressHandler := handler.NewProgressHandler(progressService)

	taskHandler := handler.NewTaskHandler(taskRepo)

	archiver := jobs.NewGoalArchiver(goalService, userRepo)
	if err := archiver.Start(); err != nil {
		log.Fatalf("failed to start goal archiver: %v", err)
	}
	defer archiver.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	setupCORS(router, cfg.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": cfg.AppEnv,
		})
	})

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/tasks", taskHandler.GetTasks)

		protected.POST("/progress", progressHandler.LogProgress)
		protected.GET("/user/stats", progressHandler.GetUserStats)

		protected.GET("/leaderboard", leaderboardHandler.GetOverall)
		protected.GET("/leaderboard/:taskID", leaderboardHandler.GetByTask)

		goals := protected.Group("/goals")
		{
			goals.GET("/daily", goalHandler.GetDailyGoals)
			goals.GET("/history", goalHandler.GetHistory)
			goals.PUT("/timezone", goalHandler.UpdateTimezone)
		}
	}

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Task{},
		&model.GoalDefinition{},
		&model.ProgressEntry{},
		&model.UserScore{},
		&model.GoalProgress{},
		&model.GoalHistory{},
	)
}

// seedTasks creates the default task catalog and its goal definitions once.
func seedTasks(db *gorm.DB) error {
	type taskSeed struct {
		task       model.Task
		target     int64
		targetType model.TargetType
	}

	seeds := []taskSeed{
		{model.Task{Name: "Exercise", Unit: "minutes", PointsPerUnit: 1, DisplayOrder: 1, IsActive: true}, 30, model.TargetMinimum},
		{model.Task{Name: "Reading", Unit: "pages", PointsPerUnit: 1, DisplayOrder: 2, IsActive: true}, 20, model.TargetMinimum},
		{model.Task{Name: "Water", Unit: "glasses", PointsPerUnit: 1, DisplayOrder: 3, IsActive: true}, 8, model.TargetMinimum},
		{model.Task{Name: "Meditation", Unit: "minutes", PointsPerUnit: 1, DisplayOrder: 4, IsActive: true}, 10, model.TargetMinimum},
		{model.Task{Name: "Sleep", Unit: "hours", PointsPerUnit: 1, DisplayOrder: 5, IsActive: true}, 8, model.TargetMaximum},
	}

	for _, seed := range seeds {
		var count int64
		if err := db.Model(&model.Task{}).
			Where("name = ?", seed.task.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		task := seed.task
		if err := db.Create(&task).Error; err != nil {
			return err
		}

		definition := model.GoalDefinition{
			TaskID:      task.ID,
			TargetValue: decimal.NewFromInt(seed.target),
			TargetType:  seed.targetType,
			IsActive:    true,
		}
		if err := db.Create(&definition).Error; err != nil {
			return err
		}
	}

	return nil
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := strings.Split(allowedOrigins, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

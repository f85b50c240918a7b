package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/seedlog/seedlog/config"
	"github.com/seedlog/seedlog/controllers"
	"github.com/seedlog/seedlog/events"
	"github.com/seedlog/seedlog/middleware"
	"github.com/seedlog/seedlog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, hub *events.Hub) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", controllers.Health)

	authController := controllers.NewAuthController(db)
	entryController := controllers.NewEntryController(db, hub)
	journalController := controllers.NewJournalController(db)
	gardenController := controllers.NewGardenController(db)
	feedController := controllers.NewFeedController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/reset/request", authController.RequestPasswordReset)
	authGroup.POST("/reset/confirm", authController.ConfirmPasswordReset)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/feed", feedController.Feed)
	protected.GET("/feed/users/:username", feedController.UserFeed)

	protected.POST("/entries", entryController.Create)
	protected.GET("/entries", entryController.List)
	protected.GET("/entries/trash", entryController.Trash)
	protected.GET("/entries/stream", entryController.Stream)
	protected.GET("/entries/:id", entryController.Get)
	protected.PATCH("/entries/:id", entryController.Update)
	protected.PATCH("/entries/:id/details", entryController.UpdateDetails)
	protected.DELETE("/entries/:id", entryController.SoftDelete)
	protected.POST("/entries/:id/restore", entryController.Restore)
	protected.DELETE("/entries/:id/purge", entryController.Purge)

	protected.GET("/journal/days", journalController.Days)
	protected.GET("/journal/calendar", journalController.Calendar)

	protected.GET("/garden/status", gardenController.Status)
	protected.POST("/garden/collect", gardenController.Collect)
	protected.GET("/garden/history", gardenController.History)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}

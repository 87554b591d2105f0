package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trajectory-explorer/internal/config"
	"github.com/jengzang/trajectory-explorer/internal/handler"
	"github.com/jengzang/trajectory-explorer/internal/middleware"
	"github.com/jengzang/trajectory-explorer/internal/repository"
	"github.com/jengzang/trajectory-explorer/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, db *sql.DB, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Trajectory analysis backend is running",
		})
	})

	repo := repository.NewTrajectoryRepository(db)
	svc := service.NewTrajectoryService(repo, service.ArcOptions{Span: cfg.ArcSpan, Samples: cfg.ArcSamples})
	h := handler.NewTrajectoryHandler(svc)

	protected := r.Group("")
	protected.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, time.Minute, nil)))
	protected.Use(middleware.Auth(cfg.JWTSecret))
	{
		protected.GET("/filters", h.GetFilters)
		protected.GET("/trajectories/:id/entries", h.GetEntries)

		viz := protected.Group("/visualizations")
		{
			viz.POST("/trajectory_selection/:targetBodyId", h.SelectTrajectories)
			viz.POST("/entry_arcs/:targetBodyId", h.GetArcs)
		}
	}

	return r
}

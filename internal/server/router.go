package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/marketlens/brandscope-backend/internal/handlers"
)

type RouterConfig struct {
	RunHandler    *handlers.RunHandler
	ReviewHandler *handlers.ReviewHandler
	AllowOrigins  []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/runs", cfg.RunHandler.CreateRun)
		api.GET("/runs/:id", cfg.RunHandler.GetRun)
		api.POST("/runs/:id/candidates", cfg.RunHandler.AddCandidates)
		api.POST("/runs/:id/seal", cfg.RunHandler.SealRun)
		api.POST("/runs/:id/cancel", cfg.RunHandler.CancelRun)
		api.GET("/runs/:id/entities", cfg.RunHandler.ListEntities)

		api.GET("/runs/:id/suggestions", cfg.ReviewHandler.ListPending)
		api.POST("/suggestions/:suggestion_id/apply", cfg.ReviewHandler.Apply)
		api.POST("/suggestions/:suggestion_id/reject", cfg.ReviewHandler.Reject)
	}

	return router
}

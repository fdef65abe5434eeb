package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnmap-backend/internal/handlers"
	"github.com/yungbote/learnmap-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	UserHandler    *handlers.UserHandler
	RoadmapHandler *handlers.RoadmapHandler
	NodeHandler    *handlers.NodeHandler
	ImportHandler  *handlers.ImportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/api/register", cfg.AuthHandler.Register)
	router.POST("/api/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	api.POST("/refresh", cfg.AuthHandler.Refresh)
	api.POST("/logout", cfg.AuthHandler.Logout)
	// User
	api.GET("/user", cfg.UserHandler.GetMe)
	// Roadmaps
	api.GET("/roadmaps", cfg.RoadmapHandler.ListRoadmaps)
	api.POST("/roadmaps", cfg.RoadmapHandler.CreateRoadmap)
	api.GET("/roadmaps/:id", cfg.RoadmapHandler.GetRoadmap)
	api.PATCH("/roadmaps/:id", cfg.RoadmapHandler.UpdateRoadmap)
	api.DELETE("/roadmaps/:id", cfg.RoadmapHandler.DeleteRoadmap)
	api.GET("/roadmaps/:id/progress", cfg.RoadmapHandler.GetProgress)
	// Nodes
	api.GET("/roadmaps/:id/nodes", cfg.NodeHandler.ListNodes)
	api.GET("/roadmaps/:id/nodes/tree", cfg.NodeHandler.GetTree)
	api.GET("/roadmaps/:id/nodes/levels", cfg.NodeHandler.GetLevels)
	api.POST("/roadmaps/:id/nodes", cfg.NodeHandler.CreateNode)
	api.PATCH("/nodes/:id", cfg.NodeHandler.UpdateNode)
	api.DELETE("/nodes/:id", cfg.NodeHandler.DeleteNode)
	api.POST("/roadmaps/:id/reorder", cfg.NodeHandler.Reorder)
	api.POST("/roadmaps/:id/nodes/batch", cfg.ImportHandler.ImportNodes)

	return router
}

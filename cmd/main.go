package main

import (
	"fmt"
	"os"
	"time"

	"github.com/yungbote/learnmap-backend/internal/db"
	"github.com/yungbote/learnmap-backend/internal/handlers"
	"github.com/yungbote/learnmap-backend/internal/logger"
	"github.com/yungbote/learnmap-backend/internal/middleware"
	"github.com/yungbote/learnmap-backend/internal/repos"
	"github.com/yungbote/learnmap-backend/internal/server"
	"github.com/yungbote/learnmap-backend/internal/services"
	"github.com/yungbote/learnmap-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Database
	databaseService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = databaseService.AutoMigrateAll(); err != nil {
		log.Warn("Database auto migration failed", "error", err)
	}
	theDB := databaseService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	userTokenRepo := repos.NewUserTokenRepo(theDB, log)
	roadmapRepo := repos.NewRoadmapRepo(theDB, log)
	nodeRepo := repos.NewNodeRepo(theDB, log)
	userEventRepo := repos.NewUserEventRepo(theDB, log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(theDB, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(theDB, log, userRepo)
	roadmapService := services.NewRoadmapService(theDB, log, roadmapRepo, nodeRepo, userEventRepo)
	nodeService := services.NewNodeService(theDB, log, roadmapRepo, nodeRepo, userEventRepo)
	importService := services.NewImportService(theDB, log, roadmapRepo, nodeRepo, userEventRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	roadmapHandler := handlers.NewRoadmapHandler(log, roadmapService)
	nodeHandler := handlers.NewNodeHandler(log, nodeService)
	importHandler := handlers.NewImportHandler(log, importService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UserHandler:    userHandler,
		RoadmapHandler: roadmapHandler,
		NodeHandler:    nodeHandler,
		ImportHandler:  importHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}

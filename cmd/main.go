package main

import (
  "context"
  "fmt"
  "os"
  "time"
  "github.com/fangzhi-labs/annotation-backend/internal/db"
  "github.com/fangzhi-labs/annotation-backend/internal/handlers"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/middleware"
  "github.com/fangzhi-labs/annotation-backend/internal/observability"
  "github.com/fangzhi-labs/annotation-backend/internal/repos"
  "github.com/fangzhi-labs/annotation-backend/internal/server"
  "github.com/fangzhi-labs/annotation-backend/internal/services"
  "github.com/fangzhi-labs/annotation-backend/internal/utils"
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
  lockSubmitted := utils.GetEnvAsBool("ANNOTATION_LOCK_SUBMITTED", false, log)

  // Tracing
  shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: "annotation-backend",
    Environment: utils.GetEnv("ENVIRONMENT", "development", log),
    Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
  })
  if shutdownOtel != nil {
    defer func() {
      ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
      defer cancel()
      _ = shutdownOtel(ctx)
    }()
  }

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  documentRepo := repos.NewDocumentRepo(thePG, log)
  annotationRepo := repos.NewAnnotationRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo)
  documentService := services.NewDocumentService(thePG, log, documentRepo, annotationRepo, userRepo)
  annotationService := services.NewAnnotationService(thePG, log, documentRepo, annotationRepo, userRepo, lockSubmitted)
  statsService := services.NewStatsService(thePG, log, documentRepo, annotationRepo, userRepo)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService, userService)
  userHandler := handlers.NewUserHandler(userService)
  documentHandler := handlers.NewDocumentHandler(documentService, annotationService)
  annotationHandler := handlers.NewAnnotationHandler(annotationService)
  statsHandler := handlers.NewStatsHandler(statsService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:       authHandler,
    AuthMiddleware:    authMiddleware,
    UserHandler:       userHandler,
    DocumentHandler:   documentHandler,
    AnnotationHandler: annotationHandler,
    StatsHandler:      statsHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  log.Info("Server listening", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}

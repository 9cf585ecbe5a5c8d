package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
  "github.com/fangzhi-labs/annotation-backend/internal/handlers"
  "github.com/fangzhi-labs/annotation-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler        *handlers.AuthHandler
  AuthMiddleware     *middleware.AuthMiddleware
  UserHandler        *handlers.UserHandler
  DocumentHandler    *handlers.DocumentHandler
  AnnotationHandler  *handlers.AnnotationHandler
  StatsHandler       *handlers.StatsHandler
  AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()
  router.Use(otelgin.Middleware("annotation-backend"))

  allowOrigins := cfg.AllowOrigins
  if len(allowOrigins) == 0 {
    allowOrigins = []string{
      "http://localhost:3000",
      "http://localhost:5173",
    }
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     allowOrigins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api")
  {
    api.POST("/auth/register", cfg.AuthHandler.Register)
    api.POST("/auth/login", cfg.AuthHandler.Login)
  }

// ===============
// || Protected ||
// ===============
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/auth/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/auth/logout", cfg.AuthHandler.Logout)
  protected.GET("/auth/me", cfg.AuthHandler.Me)
  // Documents
  protected.GET("/documents", cfg.DocumentHandler.ListDocuments)
  protected.GET("/documents/:id", cfg.DocumentHandler.GetDocument)
  protected.POST("/documents/:id/claim", cfg.DocumentHandler.ClaimDocument)
  // Annotations
  protected.GET("/annotations/:document_id", cfg.AnnotationHandler.GetAnnotation)
  protected.POST("/annotations/:document_id", cfg.AnnotationHandler.SaveAnnotation)
  // Stats
  protected.GET("/stats/overview", cfg.StatsHandler.Overview)
  protected.GET("/stats/my-stats", cfg.StatsHandler.MyStats)

// ===============
// || Admin     ||
// ===============
  admin := protected.Group("/")
  admin.Use(cfg.AuthMiddleware.RequireAdmin())
  admin.POST("/documents", cfg.DocumentHandler.CreateDocument)
  admin.PUT("/documents/:id/assign", cfg.DocumentHandler.AssignDocument)
  admin.GET("/documents/:id/annotations", cfg.DocumentHandler.ListDocumentAnnotations)
  admin.GET("/users", cfg.UserHandler.ListUsers)
  admin.GET("/stats/all-users", cfg.StatsHandler.AllUserStats)
  admin.GET("/stats/documents", cfg.StatsHandler.DocumentBreakdown)

  return router
}

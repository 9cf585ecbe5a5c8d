package services

import (
  "context"
  "fmt"
  "path/filepath"
  "testing"
  "go.uber.org/zap"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/repos"
  "github.com/fangzhi-labs/annotation-backend/internal/requestdata"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

func newTestLogger() *logger.Logger {
  return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

type testEnv struct {
  db             *gorm.DB
  userRepo       repos.UserRepo
  documentRepo   repos.DocumentRepo
  annotationRepo repos.AnnotationRepo
  users          UserService
  documents      DocumentService
  annotations    AnnotationService
  stats          StatsService
}

func newTestEnv(t *testing.T, lockSubmitted bool) *testEnv {
  t.Helper()

  dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
  gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
  if err != nil {
    t.Fatalf("open sqlite: %v", err)
  }
  if err := gdb.AutoMigrate(&types.User{}, &types.UserToken{}, &types.Document{}, &types.Annotation{}); err != nil {
    t.Fatalf("automigrate: %v", err)
  }

  log := newTestLogger()
  userRepo := repos.NewUserRepo(gdb, log)
  documentRepo := repos.NewDocumentRepo(gdb, log)
  annotationRepo := repos.NewAnnotationRepo(gdb, log)

  return &testEnv{
    db:             gdb,
    userRepo:       userRepo,
    documentRepo:   documentRepo,
    annotationRepo: annotationRepo,
    users:          NewUserService(gdb, log, userRepo),
    documents:      NewDocumentService(gdb, log, documentRepo, annotationRepo, userRepo),
    annotations:    NewAnnotationService(gdb, log, documentRepo, annotationRepo, userRepo, lockSubmitted),
    stats:          NewStatsService(gdb, log, documentRepo, annotationRepo, userRepo),
  }
}

var seedCounter int

func seedUser(t *testing.T, env *testEnv, role string) *types.User {
  t.Helper()
  seedCounter++
  user := &types.User{
    ID:       uuid.New(),
    Username: fmt.Sprintf("user%d", seedCounter),
    Password: "not-a-real-hash",
    Role:     role,
    IsActive: true,
  }
  if err := env.db.Create(user).Error; err != nil {
    t.Fatalf("seed user: %v", err)
  }
  return user
}

func seedDocument(t *testing.T, env *testEnv, title string, assignedTo *uuid.UUID) *types.Document {
  t.Helper()
  doc := &types.Document{
    ID:               uuid.New(),
    Title:            title,
    SourceContent:    "source material",
    GeneratedContent: "generated text",
    AssignedTo:       assignedTo,
  }
  if err := env.db.Create(doc).Error; err != nil {
    t.Fatalf("seed document: %v", err)
  }
  return doc
}

func ctxAs(user *types.User) context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
    UserID:   user.ID,
    Username: user.Username,
    Role:     user.Role,
  })
}

func boolPtr(b bool) *bool {
  return &b
}

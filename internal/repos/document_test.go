package repos

import (
  "context"
  "path/filepath"
  "testing"
  "go.uber.org/zap"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
  t.Helper()
  dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
  gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
  if err != nil {
    t.Fatalf("open sqlite: %v", err)
  }
  if err := gdb.AutoMigrate(&types.User{}, &types.Document{}, &types.Annotation{}); err != nil {
    t.Fatalf("automigrate: %v", err)
  }
  return gdb
}

func TestClaimIfUnassigned(t *testing.T) {
  gdb := newRepoTestDB(t)
  log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
  repo := NewDocumentRepo(gdb, log)
  ctx := context.Background()

  doc := &types.Document{ID: uuid.New(), Title: "doc"}
  if err := gdb.Create(doc).Error; err != nil {
    t.Fatalf("seed document: %v", err)
  }
  annotatorA := uuid.New()
  annotatorB := uuid.New()

  claimed, err := repo.ClaimIfUnassigned(ctx, nil, doc.ID, annotatorA)
  if err != nil {
    t.Fatalf("first claim: %v", err)
  }
  if !claimed {
    t.Fatalf("first claim should win")
  }

  // The guard is part of the UPDATE itself: a second claim matches no row.
  claimed, err = repo.ClaimIfUnassigned(ctx, nil, doc.ID, annotatorB)
  if err != nil {
    t.Fatalf("second claim: %v", err)
  }
  if claimed {
    t.Fatalf("second claim must lose")
  }

  docs, err := repo.GetByIDs(ctx, nil, []uuid.UUID{doc.ID})
  if err != nil || len(docs) != 1 {
    t.Fatalf("reload document: %v", err)
  }
  if docs[0].AssignedTo == nil || *docs[0].AssignedTo != annotatorA {
    t.Fatalf("winner not persisted")
  }

  // Unknown id matches no row and reports not claimed, no error.
  claimed, err = repo.ClaimIfUnassigned(ctx, nil, uuid.New(), annotatorB)
  if err != nil {
    t.Fatalf("claim unknown: %v", err)
  }
  if claimed {
    t.Fatalf("claim on unknown id must not succeed")
  }
}

func TestListVisibleToAnnotator(t *testing.T) {
  gdb := newRepoTestDB(t)
  log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
  repo := NewDocumentRepo(gdb, log)
  ctx := context.Background()

  mine := uuid.New()
  other := uuid.New()
  docs := []*types.Document{
    {ID: uuid.New(), Title: "free"},
    {ID: uuid.New(), Title: "mine", AssignedTo: &mine},
    {ID: uuid.New(), Title: "theirs", AssignedTo: &other},
  }
  for _, doc := range docs {
    if err := gdb.Create(doc).Error; err != nil {
      t.Fatalf("seed document: %v", err)
    }
  }

  visible, err := repo.ListVisibleToAnnotator(ctx, nil, mine)
  if err != nil {
    t.Fatalf("list visible: %v", err)
  }
  if len(visible) != 2 {
    t.Fatalf("got %d visible documents, want 2", len(visible))
  }
  for _, doc := range visible {
    if doc.Title == "theirs" {
      t.Fatalf("another annotator's assignment leaked into the list")
    }
  }
}

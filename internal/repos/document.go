package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

type DocumentRepo interface {
  Create(ctx context.Context, tx *gorm.DB, documents []*types.Document) ([]*types.Document, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, documentIDs []uuid.UUID) ([]*types.Document, error)
  ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Document, error)
  ListVisibleToAnnotator(ctx context.Context, tx *gorm.DB, annotatorID uuid.UUID) ([]*types.Document, error)
  UpdateAssignment(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, assignedTo *uuid.UUID) error
  ClaimIfUnassigned(ctx context.Context, tx *gorm.DB, documentID, annotatorID uuid.UUID) (bool, error)
  CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
}

type documentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
  repoLog := baseLog.With("repo", "DocumentRepo")
  return &documentRepo{db: db, log: repoLog}
}

func (dr *documentRepo) Create(ctx context.Context, tx *gorm.DB, documents []*types.Document) ([]*types.Document, error) {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }

  if len(documents) == 0 {
    return []*types.Document{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&documents).Error; err != nil {
    return nil, err
  }

  return documents, nil
}

func (dr *documentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, documentIDs []uuid.UUID) ([]*types.Document, error) {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }

  var results []*types.Document
  if len(documentIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", documentIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (dr *documentRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Document, error) {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }

  var results []*types.Document
  if err := transaction.WithContext(ctx).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// ListVisibleToAnnotator returns unassigned documents plus the ones assigned
// to the given annotator. Other experts' assignments are never visible.
func (dr *documentRepo) ListVisibleToAnnotator(ctx context.Context, tx *gorm.DB, annotatorID uuid.UUID) ([]*types.Document, error) {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }

  var results []*types.Document
  if err := transaction.WithContext(ctx).
    Where("assigned_to IS NULL OR assigned_to = ?", annotatorID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (dr *documentRepo) UpdateAssignment(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, assignedTo *uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Document{}).
    Where("id = ?", documentID).
    Update("assigned_to", assignedTo).Error; err != nil {
    return err
  }
  return nil
}

// ClaimIfUnassigned is the one compare-and-set write in the system: the
// assigned_to check and set happen in a single UPDATE so concurrent claims
// serialize at the store and exactly one caller wins.
func (dr *documentRepo) ClaimIfUnassigned(ctx context.Context, tx *gorm.DB, documentID, annotatorID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }

  result := transaction.WithContext(ctx).
    Model(&types.Document{}).
    Where("id = ? AND assigned_to IS NULL", documentID).
    Update("assigned_to", annotatorID)
  if result.Error != nil {
    return false, result.Error
  }
  claimed := result.RowsAffected == 1
  return claimed, nil
}

func (dr *documentRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Document{}).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

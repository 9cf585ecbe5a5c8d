package repos

import (
  "context"
  "errors"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

type AnnotationRepo interface {
  Create(ctx context.Context, tx *gorm.DB, annotations []*types.Annotation) ([]*types.Annotation, error)
  Update(ctx context.Context, tx *gorm.DB, annotation *types.Annotation) (*types.Annotation, error)
  GetByDocumentAndAnnotator(ctx context.Context, tx *gorm.DB, documentID, annotatorID uuid.UUID) (*types.Annotation, error)
  ListByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uuid.UUID) ([]*types.Annotation, error)
  ListByAnnotatorIDs(ctx context.Context, tx *gorm.DB, annotatorIDs []uuid.UUID) ([]*types.Annotation, error)
  ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Annotation, error)
}

type annotationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAnnotationRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationRepo {
  repoLog := baseLog.With("repo", "AnnotationRepo")
  return &annotationRepo{db: db, log: repoLog}
}

func (ar *annotationRepo) Create(ctx context.Context, tx *gorm.DB, annotations []*types.Annotation) ([]*types.Annotation, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  if len(annotations) == 0 {
    return []*types.Annotation{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&annotations).Error; err != nil {
    return nil, err
  }

  return annotations, nil
}

func (ar *annotationRepo) Update(ctx context.Context, tx *gorm.DB, annotation *types.Annotation) (*types.Annotation, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  if annotation == nil {
    return nil, nil
  }

  if err := transaction.WithContext(ctx).Save(annotation).Error; err != nil {
    return nil, err
  }
  return annotation, nil
}

// GetByDocumentAndAnnotator returns nil without error when no record exists:
// a document never opened by that annotator is an expected steady state.
func (ar *annotationRepo) GetByDocumentAndAnnotator(ctx context.Context, tx *gorm.DB, documentID, annotatorID uuid.UUID) (*types.Annotation, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  var result types.Annotation
  err := transaction.WithContext(ctx).
    Where("document_id = ? AND annotator_id = ?", documentID, annotatorID).
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (ar *annotationRepo) ListByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uuid.UUID) ([]*types.Annotation, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  var results []*types.Annotation
  if len(documentIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("document_id IN ?", documentIDs).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (ar *annotationRepo) ListByAnnotatorIDs(ctx context.Context, tx *gorm.DB, annotatorIDs []uuid.UUID) ([]*types.Annotation, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  var results []*types.Annotation
  if len(annotatorIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("annotator_id IN ?", annotatorIDs).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (ar *annotationRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Annotation, error) {
  transaction := tx
  if transaction == nil {
    transaction = ar.db
  }

  var results []*types.Annotation
  if err := transaction.WithContext(ctx).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

package services

import (
  "context"
  "fmt"
  "math"
  "gorm.io/gorm"
  "golang.org/x/sync/errgroup"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/apperrors"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/repos"
  "github.com/fangzhi-labs/annotation-backend/internal/requestdata"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

type OverviewStats struct {
  TotalDocuments      int64     `json:"total_documents"`
  AnnotatedDocuments  int64     `json:"annotated_documents"`
  PositiveRate        float64   `json:"positive_rate"`
  CompletionRate      float64   `json:"completion_rate"`
}

type UserStats struct {
  CompletedAnnotations  int     `json:"completed_annotations"`
  PositiveRate          float64 `json:"positive_rate"`
  TotalTimeMinutes      int     `json:"total_time_minutes"`
}

type UserApprovalRow struct {
  UserID          uuid.UUID   `json:"user_id"`
  Username        string      `json:"username"`
  ApprovalRate    float64     `json:"approval_rate"`
  EvaluationCount int         `json:"evaluation_count"`
}

type DocumentBreakdownRow struct {
  DocumentID        uuid.UUID   `json:"document_id"`
  AnnotationsCount  int         `json:"annotations_count"`
  AnnotatorsCount   int         `json:"annotators_count"`
}

type StatsService interface {
  Overview(ctx context.Context) (*OverviewStats, error)
  MyStats(ctx context.Context) (*UserStats, error)
  ApprovalRates(ctx context.Context) ([]*UserApprovalRow, error)
  DocumentBreakdown(ctx context.Context) ([]*DocumentBreakdownRow, error)
}

type statsService struct {
  db             *gorm.DB
  log            *logger.Logger
  documentRepo   repos.DocumentRepo
  annotationRepo repos.AnnotationRepo
  userRepo       repos.UserRepo
}

func NewStatsService(
  db *gorm.DB,
  log *logger.Logger,
  documentRepo repos.DocumentRepo,
  annotationRepo repos.AnnotationRepo,
  userRepo repos.UserRepo,
) StatsService {
  serviceLog := log.With("service", "StatsService")
  return &statsService{
    db:             db,
    log:            serviceLog,
    documentRepo:   documentRepo,
    annotationRepo: annotationRepo,
    userRepo:       userRepo,
  }
}

// DeriveDocumentStatus computes annotation status from the records attached
// to a document. Any completed record wins over any number of drafts.
func DeriveDocumentStatus(annotations []*types.Annotation) string {
  if len(annotations) == 0 {
    return types.AnnotationStatusUnannotated
  }
  for _, ann := range annotations {
    if ann.IsCompleted {
      return types.AnnotationStatusAnnotated
    }
  }
  return types.AnnotationStatusInProgress
}

// Overview recomputes the platform-wide numbers from current state on every
// call. All rates degrade to zero on an empty denominator.
func (ss *statsService) Overview(ctx context.Context) (*OverviewStats, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, apperrors.ErrUnauthenticated
  }

  var totalDocuments int64
  var annotations []*types.Annotation

  group, groupCtx := errgroup.WithContext(ctx)
  group.Go(func() error {
    count, err := ss.documentRepo.CountAll(groupCtx, nil)
    if err != nil {
      return fmt.Errorf("Failed to count documents: %w", err)
    }
    totalDocuments = count
    return nil
  })
  group.Go(func() error {
    all, err := ss.annotationRepo.ListAll(groupCtx, nil)
    if err != nil {
      return fmt.Errorf("Failed to list annotations: %w", err)
    }
    annotations = all
    return nil
  })
  if err := group.Wait(); err != nil {
    return nil, err
  }

  annotatedDocs := make(map[uuid.UUID]struct{})
  var evaluated, positive int64
  for _, ann := range annotations {
    if ann.IsCompleted {
      annotatedDocs[ann.DocumentID] = struct{}{}
    }
    if ann.Evaluation != nil {
      evaluated++
      if *ann.Evaluation {
        positive++
      }
    }
  }

  stats := &OverviewStats{
    TotalDocuments:     totalDocuments,
    AnnotatedDocuments: int64(len(annotatedDocs)),
  }
  if evaluated > 0 {
    stats.PositiveRate = round2(float64(positive) / float64(evaluated) * 100)
  }
  if totalDocuments > 0 {
    stats.CompletionRate = round2(float64(stats.AnnotatedDocuments) / float64(totalDocuments) * 100)
  }
  return stats, nil
}

func (ss *statsService) MyStats(ctx context.Context) (*UserStats, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthenticated
  }

  annotations, err := ss.annotationRepo.ListByAnnotatorIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    return nil, fmt.Errorf("Failed to list own annotations: %w", err)
  }
  return computeUserStats(annotations), nil
}

// ApprovalRates reports one row per expert with at least one evaluated
// record; records without an evaluation count toward neither side.
func (ss *statsService) ApprovalRates(ctx context.Context) ([]*UserApprovalRow, error) {
  rd := requestdata.GetRequestData(ctx)
  if !rd.IsAdmin() {
    return nil, apperrors.ErrForbidden
  }

  experts, err := ss.userRepo.ListByRole(ctx, nil, types.RoleExpert)
  if err != nil {
    return nil, fmt.Errorf("Failed to list experts: %w", err)
  }
  annotations, err := ss.annotationRepo.ListAll(ctx, nil)
  if err != nil {
    return nil, fmt.Errorf("Failed to list annotations: %w", err)
  }

  type tally struct {
    evaluated int
    positive  int
  }
  tallies := make(map[uuid.UUID]*tally)
  for _, ann := range annotations {
    if ann.Evaluation == nil {
      continue
    }
    entry := tallies[ann.AnnotatorID]
    if entry == nil {
      entry = &tally{}
      tallies[ann.AnnotatorID] = entry
    }
    entry.evaluated++
    if *ann.Evaluation {
      entry.positive++
    }
  }

  rows := make([]*UserApprovalRow, 0, len(tallies))
  for _, expert := range experts {
    entry := tallies[expert.ID]
    if entry == nil {
      continue
    }
    rows = append(rows, &UserApprovalRow{
      UserID:          expert.ID,
      Username:        expert.Username,
      ApprovalRate:    round2(float64(entry.positive) / float64(entry.evaluated) * 100),
      EvaluationCount: entry.evaluated,
    })
  }
  return rows, nil
}

func (ss *statsService) DocumentBreakdown(ctx context.Context) ([]*DocumentBreakdownRow, error) {
  rd := requestdata.GetRequestData(ctx)
  if !rd.IsAdmin() {
    return nil, apperrors.ErrForbidden
  }

  documents, err := ss.documentRepo.ListAll(ctx, nil)
  if err != nil {
    return nil, fmt.Errorf("Failed to list documents: %w", err)
  }
  annotations, err := ss.annotationRepo.ListAll(ctx, nil)
  if err != nil {
    return nil, fmt.Errorf("Failed to list annotations: %w", err)
  }

  counts := make(map[uuid.UUID]int)
  annotators := make(map[uuid.UUID]map[uuid.UUID]struct{})
  for _, ann := range annotations {
    counts[ann.DocumentID]++
    if annotators[ann.DocumentID] == nil {
      annotators[ann.DocumentID] = make(map[uuid.UUID]struct{})
    }
    annotators[ann.DocumentID][ann.AnnotatorID] = struct{}{}
  }

  rows := make([]*DocumentBreakdownRow, 0, len(documents))
  for _, doc := range documents {
    rows = append(rows, &DocumentBreakdownRow{
      DocumentID:       doc.ID,
      AnnotationsCount: counts[doc.ID],
      AnnotatorsCount:  len(annotators[doc.ID]),
    })
  }
  return rows, nil
}

func computeUserStats(annotations []*types.Annotation) *UserStats {
  stats := &UserStats{}
  var evaluated, positive, totalSeconds int
  for _, ann := range annotations {
    if ann.IsCompleted {
      stats.CompletedAnnotations++
    }
    totalSeconds += ann.TimeSpent
    if ann.Evaluation != nil {
      evaluated++
      if *ann.Evaluation {
        positive++
      }
    }
  }
  if evaluated > 0 {
    stats.PositiveRate = round2(float64(positive) / float64(evaluated) * 100)
  }
  // Whole minutes, floored.
  stats.TotalTimeMinutes = totalSeconds / 60
  return stats
}

func round2(v float64) float64 {
  return math.Round(v*100) / 100
}

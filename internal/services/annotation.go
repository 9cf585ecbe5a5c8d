package services

import (
  "context"
  "encoding/json"
  "fmt"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/apperrors"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/repos"
  "github.com/fangzhi-labs/annotation-backend/internal/requestdata"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

type SaveAnnotationInput struct {
  Evaluation  *bool
  Comments    []types.CommentItem
  TimeSpent   int
  IsCompleted bool
}

type AnnotationView struct {
  AnnotationID  uuid.UUID            `json:"annotation_id"`
  AnnotatorID   uuid.UUID            `json:"annotator_id"`
  Username      string               `json:"username"`
  Evaluation    *bool                `json:"evaluation"`
  Comments      []types.CommentItem  `json:"comments"`
  TimeSpent     int                  `json:"time_spent"`
  IsCompleted   bool                 `json:"is_completed"`
}

type AnnotationService interface {
  Get(ctx context.Context, documentID uuid.UUID) (*types.Annotation, error)
  Save(ctx context.Context, documentID uuid.UUID, input SaveAnnotationInput) (*types.Annotation, error)
  ListForDocument(ctx context.Context, documentID uuid.UUID) ([]*AnnotationView, error)
}

type annotationService struct {
  db             *gorm.DB
  log            *logger.Logger
  documentRepo   repos.DocumentRepo
  annotationRepo repos.AnnotationRepo
  userRepo       repos.UserRepo
  lockSubmitted  bool
}

// NewAnnotationService wires the single save/submit write path. lockSubmitted
// decides whether a submitted record is terminal: when true, later saves for
// the same (document, annotator) pair fail with a conflict instead of
// overwriting.
func NewAnnotationService(
  db *gorm.DB,
  log *logger.Logger,
  documentRepo repos.DocumentRepo,
  annotationRepo repos.AnnotationRepo,
  userRepo repos.UserRepo,
  lockSubmitted bool,
) AnnotationService {
  serviceLog := log.With("service", "AnnotationService")
  return &annotationService{
    db:             db,
    log:            serviceLog,
    documentRepo:   documentRepo,
    annotationRepo: annotationRepo,
    userRepo:       userRepo,
    lockSubmitted:  lockSubmitted,
  }
}

// Get returns the caller's own record. A missing record surfaces as
// ErrNotFound, which callers treat as "start from an empty draft".
func (ans *annotationService) Get(ctx context.Context, documentID uuid.UUID) (*types.Annotation, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthenticated
  }

  annotation, err := ans.annotationRepo.GetByDocumentAndAnnotator(ctx, nil, documentID, rd.UserID)
  if err != nil {
    return nil, fmt.Errorf("Failed to get annotation: %w", err)
  }
  if annotation == nil {
    return nil, apperrors.ErrNotFound
  }
  return annotation, nil
}

// Save is a wholesale replace: the stored record always equals the last
// payload, field for field. Saves and submits share this path; is_completed
// is just a field on the record.
func (ans *annotationService) Save(ctx context.Context, documentID uuid.UUID, input SaveAnnotationInput) (*types.Annotation, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthenticated
  }
  if rd.IsAdmin() {
    return nil, apperrors.ErrForbidden
  }

  if input.TimeSpent < 0 {
    return nil, apperrors.NewValidationError("time_spent", "time spent must not be negative")
  }
  for i, comment := range input.Comments {
    if comment.SelectedText == "" {
      return nil, apperrors.NewValidationError(fmt.Sprintf("comments[%d].selected_text", i), "selected text must not be empty")
    }
    if comment.Comment == "" {
      return nil, apperrors.NewValidationError(fmt.Sprintf("comments[%d].comment", i), "comment must not be empty")
    }
  }

  documents, err := ans.documentRepo.GetByIDs(ctx, nil, []uuid.UUID{documentID})
  if err != nil {
    return nil, fmt.Errorf("Failed to get document for annotation: %w", err)
  }
  if len(documents) == 0 {
    return nil, apperrors.ErrNotFound
  }
  document := documents[0]

  // Assignment is advisory, but a document routed to a different annotator
  // is off limits so reassignment mid-flight cannot corrupt another draft.
  if document.AssignedTo != nil && *document.AssignedTo != rd.UserID {
    return nil, fmt.Errorf("document assigned to another annotator: %w", apperrors.ErrForbidden)
  }

  comments := input.Comments
  if comments == nil {
    comments = []types.CommentItem{}
  }
  rawComments, err := json.Marshal(comments)
  if err != nil {
    return nil, fmt.Errorf("Failed to encode comments: %w", err)
  }

  var saved *types.Annotation
  if err := ans.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    existing, err := ans.annotationRepo.GetByDocumentAndAnnotator(ctx, tx, documentID, rd.UserID)
    if err != nil {
      return fmt.Errorf("Failed to check existing annotation: %w", err)
    }

    if existing != nil && existing.IsCompleted && ans.lockSubmitted {
      return fmt.Errorf("annotation already submitted: %w", apperrors.ErrConflict)
    }

    if existing == nil {
      annotation := &types.Annotation{
        ID:          uuid.New(),
        DocumentID:  documentID,
        AnnotatorID: rd.UserID,
        Evaluation:  input.Evaluation,
        Comments:    datatypes.JSON(rawComments),
        TimeSpent:   input.TimeSpent,
        IsCompleted: input.IsCompleted,
      }
      if _, err := ans.annotationRepo.Create(ctx, tx, []*types.Annotation{annotation}); err != nil {
        return fmt.Errorf("Failed to create annotation: %w", err)
      }
      saved = annotation
      return nil
    }

    existing.Evaluation = input.Evaluation
    existing.Comments = datatypes.JSON(rawComments)
    existing.TimeSpent = input.TimeSpent
    existing.IsCompleted = input.IsCompleted
    if _, err := ans.annotationRepo.Update(ctx, tx, existing); err != nil {
      return fmt.Errorf("Failed to update annotation: %w", err)
    }
    saved = existing
    return nil
  }); err != nil {
    return nil, err
  }

  ans.log.Debug("Annotation saved", "document_id", documentID, "annotator_id", rd.UserID, "is_completed", saved.IsCompleted)
  return saved, nil
}

// ListForDocument is the admin aggregate view over every annotator's record
// for one document.
func (ans *annotationService) ListForDocument(ctx context.Context, documentID uuid.UUID) ([]*AnnotationView, error) {
  rd := requestdata.GetRequestData(ctx)
  if !rd.IsAdmin() {
    return nil, apperrors.ErrForbidden
  }

  documents, err := ans.documentRepo.GetByIDs(ctx, nil, []uuid.UUID{documentID})
  if err != nil {
    return nil, fmt.Errorf("Failed to get document: %w", err)
  }
  if len(documents) == 0 {
    return nil, apperrors.ErrNotFound
  }

  annotations, err := ans.annotationRepo.ListByDocumentIDs(ctx, nil, []uuid.UUID{documentID})
  if err != nil {
    return nil, fmt.Errorf("Failed to list annotations: %w", err)
  }

  annotatorIDs := make([]uuid.UUID, 0, len(annotations))
  for _, ann := range annotations {
    annotatorIDs = append(annotatorIDs, ann.AnnotatorID)
  }
  users, err := ans.userRepo.GetByIDs(ctx, nil, annotatorIDs)
  if err != nil {
    return nil, fmt.Errorf("Failed to get annotators: %w", err)
  }
  usernames := make(map[uuid.UUID]string, len(users))
  for _, user := range users {
    usernames[user.ID] = user.Username
  }

  views := make([]*AnnotationView, 0, len(annotations))
  for _, ann := range annotations {
    views = append(views, &AnnotationView{
      AnnotationID: ann.ID,
      AnnotatorID:  ann.AnnotatorID,
      Username:     usernames[ann.AnnotatorID],
      Evaluation:   ann.Evaluation,
      Comments:     DecodeComments(ann.Comments),
      TimeSpent:    ann.TimeSpent,
      IsCompleted:  ann.IsCompleted,
    })
  }
  return views, nil
}

// DecodeComments tolerates an empty or missing column and yields the ordered
// comment list.
func DecodeComments(raw datatypes.JSON) []types.CommentItem {
  if len(raw) == 0 {
    return []types.CommentItem{}
  }
  var comments []types.CommentItem
  if err := json.Unmarshal(raw, &comments); err != nil {
    return []types.CommentItem{}
  }
  return comments
}

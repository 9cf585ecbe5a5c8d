package services

import (
  "context"
  "fmt"
  "strings"
  "time"
  "unicode"
  "gorm.io/gorm"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/apperrors"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/normalization"
  "github.com/fangzhi-labs/annotation-backend/internal/repos"
  "github.com/fangzhi-labs/annotation-backend/internal/requestdata"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

type DocumentListItem struct {
  ID                  uuid.UUID   `json:"id"`
  Title               string      `json:"title"`
  WordCountSource     int         `json:"word_count_source"`
  WordCountGenerated  int         `json:"word_count_generated"`
  AssignedTo          *uuid.UUID  `json:"assigned_to"`
  AnnotationStatus    string      `json:"annotation_status"`
  AnnotationsCount    int         `json:"annotations_count"`
  CreatedAt           time.Time   `json:"created_at"`
}

type DocumentDetail struct {
  Document          *types.Document     `json:"document"`
  AnnotationStatus  string              `json:"annotation_status"`
  Annotation        *types.Annotation   `json:"annotation"`
}

type DocumentService interface {
  Create(ctx context.Context, title, sourceContent, generatedContent string) (*types.Document, error)
  List(ctx context.Context) ([]*DocumentListItem, error)
  Get(ctx context.Context, documentID uuid.UUID) (*DocumentDetail, error)
  Assign(ctx context.Context, documentID uuid.UUID, assignedTo *uuid.UUID) error
  Claim(ctx context.Context, documentID uuid.UUID) error
}

type documentService struct {
  db             *gorm.DB
  log            *logger.Logger
  documentRepo   repos.DocumentRepo
  annotationRepo repos.AnnotationRepo
  userRepo       repos.UserRepo
}

func NewDocumentService(
  db *gorm.DB,
  log *logger.Logger,
  documentRepo repos.DocumentRepo,
  annotationRepo repos.AnnotationRepo,
  userRepo repos.UserRepo,
) DocumentService {
  serviceLog := log.With("service", "DocumentService")
  return &documentService{
    db:             db,
    log:            serviceLog,
    documentRepo:   documentRepo,
    annotationRepo: annotationRepo,
    userRepo:       userRepo,
  }
}

func (ds *documentService) Create(ctx context.Context, title, sourceContent, generatedContent string) (*types.Document, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, apperrors.ErrUnauthenticated
  }
  if !rd.IsAdmin() {
    return nil, apperrors.ErrForbidden
  }

  title = normalization.TrimInputString(title)
  if title == "" {
    return nil, apperrors.NewValidationError("title", "title is required")
  }
  if sourceContent == "" {
    return nil, apperrors.NewValidationError("source_content", "source content is required")
  }
  if generatedContent == "" {
    return nil, apperrors.NewValidationError("generated_content", "generated content is required")
  }

  document := &types.Document{
    ID:                 uuid.New(),
    Title:              title,
    SourceContent:      sourceContent,
    GeneratedContent:   generatedContent,
    WordCountSource:    countWords(sourceContent),
    WordCountGenerated: countWords(generatedContent),
  }
  if _, err := ds.documentRepo.Create(ctx, nil, []*types.Document{document}); err != nil {
    return nil, fmt.Errorf("Failed to create document: %w", err)
  }
  return document, nil
}

// List is the one role-conditional query: experts see unassigned documents
// plus their own, with status from their own record; admins see everything
// with the global status.
func (ds *documentService) List(ctx context.Context) ([]*DocumentListItem, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, apperrors.ErrUnauthenticated
  }

  var documents []*types.Document
  var err error
  if rd.IsAdmin() {
    documents, err = ds.documentRepo.ListAll(ctx, nil)
  } else {
    documents, err = ds.documentRepo.ListVisibleToAnnotator(ctx, nil, rd.UserID)
  }
  if err != nil {
    return nil, fmt.Errorf("Failed to list documents: %w", err)
  }

  documentIDs := make([]uuid.UUID, 0, len(documents))
  for _, doc := range documents {
    documentIDs = append(documentIDs, doc.ID)
  }
  annotations, err := ds.annotationRepo.ListByDocumentIDs(ctx, nil, documentIDs)
  if err != nil {
    return nil, fmt.Errorf("Failed to list annotations for documents: %w", err)
  }

  byDocument := make(map[uuid.UUID][]*types.Annotation)
  for _, ann := range annotations {
    if !rd.IsAdmin() && ann.AnnotatorID != rd.UserID {
      continue
    }
    byDocument[ann.DocumentID] = append(byDocument[ann.DocumentID], ann)
  }

  items := make([]*DocumentListItem, 0, len(documents))
  for _, doc := range documents {
    group := byDocument[doc.ID]
    items = append(items, &DocumentListItem{
      ID:                 doc.ID,
      Title:              doc.Title,
      WordCountSource:    doc.WordCountSource,
      WordCountGenerated: doc.WordCountGenerated,
      AssignedTo:         doc.AssignedTo,
      AnnotationStatus:   DeriveDocumentStatus(group),
      AnnotationsCount:   len(group),
      CreatedAt:          doc.CreatedAt,
    })
  }
  return items, nil
}

func (ds *documentService) Get(ctx context.Context, documentID uuid.UUID) (*DocumentDetail, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, apperrors.ErrUnauthenticated
  }

  documents, err := ds.documentRepo.GetByIDs(ctx, nil, []uuid.UUID{documentID})
  if err != nil {
    return nil, fmt.Errorf("Failed to get document: %w", err)
  }
  if len(documents) == 0 {
    return nil, apperrors.ErrNotFound
  }
  document := documents[0]

  var status string
  if rd.IsAdmin() {
    all, err := ds.annotationRepo.ListByDocumentIDs(ctx, nil, []uuid.UUID{documentID})
    if err != nil {
      return nil, fmt.Errorf("Failed to list annotations for document: %w", err)
    }
    status = DeriveDocumentStatus(all)
  }

  own, err := ds.annotationRepo.GetByDocumentAndAnnotator(ctx, nil, documentID, rd.UserID)
  if err != nil {
    return nil, fmt.Errorf("Failed to get own annotation: %w", err)
  }
  if !rd.IsAdmin() {
    if own == nil {
      status = types.AnnotationStatusUnannotated
    } else {
      status = DeriveDocumentStatus([]*types.Annotation{own})
    }
  }

  return &DocumentDetail{
    Document:         document,
    AnnotationStatus: status,
    Annotation:       own,
  }, nil
}

// Assign routes a document to one annotator, or clears the route with nil.
// Existing annotation records are left untouched: assignment is advisory,
// ownership of records is enforced at the annotation write path.
func (ds *documentService) Assign(ctx context.Context, documentID uuid.UUID, assignedTo *uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return apperrors.ErrUnauthenticated
  }
  if !rd.IsAdmin() {
    return apperrors.ErrForbidden
  }

  documents, err := ds.documentRepo.GetByIDs(ctx, nil, []uuid.UUID{documentID})
  if err != nil {
    return fmt.Errorf("Failed to get document for assignment: %w", err)
  }
  if len(documents) == 0 {
    return apperrors.ErrNotFound
  }

  if assignedTo != nil {
    users, err := ds.userRepo.GetByIDs(ctx, nil, []uuid.UUID{*assignedTo})
    if err != nil {
      return fmt.Errorf("Failed to get assignee: %w", err)
    }
    if len(users) == 0 {
      return apperrors.NewValidationError("annotator_id", "annotator does not exist")
    }
    if users[0].Role != types.RoleExpert {
      return apperrors.NewValidationError("annotator_id", "annotator must be an expert")
    }
  }

  if err := ds.documentRepo.UpdateAssignment(ctx, nil, documentID, assignedTo); err != nil {
    return fmt.Errorf("Failed to update assignment: %w", err)
  }
  ds.log.Info("Document assignment updated", "document_id", documentID, "assigned_to", assignedTo)
  return nil
}

// Claim races resolve at the store: the repo's compare-and-set update either
// takes the document or reports it taken. Claiming a document already
// assigned to the caller is a no-op success.
func (ds *documentService) Claim(ctx context.Context, documentID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return apperrors.ErrUnauthenticated
  }
  if rd.IsAdmin() {
    return apperrors.ErrForbidden
  }

  documents, err := ds.documentRepo.GetByIDs(ctx, nil, []uuid.UUID{documentID})
  if err != nil {
    return fmt.Errorf("Failed to get document for claim: %w", err)
  }
  if len(documents) == 0 {
    return apperrors.ErrNotFound
  }

  claimed, err := ds.documentRepo.ClaimIfUnassigned(ctx, nil, documentID, rd.UserID)
  if err != nil {
    return fmt.Errorf("Failed to claim document: %w", err)
  }
  if claimed {
    ds.log.Info("Document claimed", "document_id", documentID, "annotator_id", rd.UserID)
    return nil
  }

  current, err := ds.documentRepo.GetByIDs(ctx, nil, []uuid.UUID{documentID})
  if err != nil {
    return fmt.Errorf("Failed to re-read document after claim: %w", err)
  }
  if len(current) > 0 && current[0].IsAssignedTo(rd.UserID) {
    return nil
  }
  return fmt.Errorf("document already assigned: %w", apperrors.ErrConflict)
}

// countWords mirrors the ingestion convention: CJK ideographs count per
// character, everything else per whitespace-separated word.
func countWords(text string) int {
  if text == "" {
    return 0
  }
  cjk := 0
  var latin strings.Builder
  for _, r := range text {
    if unicode.Is(unicode.Han, r) {
      cjk++
      latin.WriteRune(' ')
      continue
    }
    latin.WriteRune(r)
  }
  words := len(strings.Fields(latin.String()))
  return cjk + words
}

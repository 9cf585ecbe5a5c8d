package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/services"
)

type DocumentHandler struct {
  documentService     services.DocumentService
  annotationService   services.AnnotationService
}

func NewDocumentHandler(documentService services.DocumentService, annotationService services.AnnotationService) *DocumentHandler {
  return &DocumentHandler{documentService: documentService, annotationService: annotationService}
}

func (dh *DocumentHandler) ListDocuments(c *gin.Context) {
  items, err := dh.documentService.List(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, items)
}

func (dh *DocumentHandler) GetDocument(c *gin.Context) {
  documentID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  detail, err := dh.documentService.Get(c.Request.Context(), documentID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  doc := detail.Document
  response := gin.H{
    "id":                   doc.ID,
    "title":                doc.Title,
    "source_content":       doc.SourceContent,
    "generated_content":    doc.GeneratedContent,
    "word_count_source":    doc.WordCountSource,
    "word_count_generated": doc.WordCountGenerated,
    "assigned_to":          doc.AssignedTo,
    "created_at":           doc.CreatedAt,
    "updated_at":           doc.UpdatedAt,
    "annotation_status":    detail.AnnotationStatus,
  }
  if detail.Annotation != nil {
    response["evaluation"] = detail.Annotation.Evaluation
    response["comments"] = services.DecodeComments(detail.Annotation.Comments)
    response["time_spent"] = detail.Annotation.TimeSpent
    response["is_completed"] = detail.Annotation.IsCompleted
    response["annotated_at"] = detail.Annotation.CreatedAt
  }
  c.JSON(http.StatusOK, response)
}

func (dh *DocumentHandler) CreateDocument(c *gin.Context) {
  var req struct {
    Title             string      `json:"title"`
    SourceContent     string      `json:"source_content"`
    GeneratedContent  string      `json:"generated_content"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  document, err := dh.documentService.Create(c.Request.Context(), req.Title, req.SourceContent, req.GeneratedContent)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, document)
}

func (dh *DocumentHandler) AssignDocument(c *gin.Context) {
  documentID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  var req struct {
    AnnotatorID   *uuid.UUID  `json:"annotator_id"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := dh.documentService.Assign(c.Request.Context(), documentID, req.AnnotatorID); err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "assignment updated"})
}

func (dh *DocumentHandler) ClaimDocument(c *gin.Context) {
  documentID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  if err := dh.documentService.Claim(c.Request.Context(), documentID); err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "document claimed"})
}

func (dh *DocumentHandler) ListDocumentAnnotations(c *gin.Context) {
  documentID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  views, err := dh.annotationService.ListForDocument(c.Request.Context(), documentID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, views)
}

package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/apperrors"
  "github.com/fangzhi-labs/annotation-backend/internal/services"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

type AnnotationHandler struct {
  annotationService     services.AnnotationService
}

func NewAnnotationHandler(annotationService services.AnnotationService) *AnnotationHandler {
  return &AnnotationHandler{annotationService: annotationService}
}

// GetAnnotation returns the caller's own record, or an empty draft when the
// document was never opened by this annotator. Absence is not an error here.
func (anh *AnnotationHandler) GetAnnotation(c *gin.Context) {
  documentID, err := uuid.Parse(c.Param("document_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  annotation, err := anh.annotationService.Get(c.Request.Context(), documentID)
  if err != nil {
    if errors.Is(err, apperrors.ErrNotFound) {
      c.JSON(http.StatusOK, gin.H{
        "evaluation":   nil,
        "comments":     []types.CommentItem{},
        "time_spent":   0,
        "is_completed": false,
      })
      return
    }
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "evaluation":   annotation.Evaluation,
    "comments":     services.DecodeComments(annotation.Comments),
    "time_spent":   annotation.TimeSpent,
    "is_completed": annotation.IsCompleted,
  })
}

func (anh *AnnotationHandler) SaveAnnotation(c *gin.Context) {
  documentID, err := uuid.Parse(c.Param("document_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  var req struct {
    Evaluation    *bool                 `json:"evaluation"`
    Comments      []types.CommentItem   `json:"comments"`
    TimeSpent     int                   `json:"time_spent"`
    IsCompleted   bool                  `json:"is_completed"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  annotation, err := anh.annotationService.Save(c.Request.Context(), documentID, services.SaveAnnotationInput{
    Evaluation:  req.Evaluation,
    Comments:    req.Comments,
    TimeSpent:   req.TimeSpent,
    IsCompleted: req.IsCompleted,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "annotation saved", "annotation_id": annotation.ID})
}

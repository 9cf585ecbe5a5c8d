package types

import (
  "time"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// Annotation status is derived from the annotation records attached to a
// document and is never persisted on the document row.
const (
  AnnotationStatusUnannotated = "unannotated"
  AnnotationStatusInProgress  = "in_progress"
  AnnotationStatusAnnotated   = "annotated"
)

type Document struct {
  gorm.Model
  ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  Title               string          `gorm:"not null;column:title" json:"title"`
  SourceContent       string          `gorm:"not null;type:text;column:source_content" json:"source_content"`
  GeneratedContent    string          `gorm:"not null;type:text;column:generated_content" json:"generated_content"`
  WordCountSource     int             `gorm:"not null;default:0;column:word_count_source" json:"word_count_source"`
  WordCountGenerated  int             `gorm:"not null;default:0;column:word_count_generated" json:"word_count_generated"`
  AssignedTo          *uuid.UUID      `gorm:"index;column:assigned_to" json:"assigned_to"`
  CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`
}

func (Document) TableName() string {
  return "document"
}

func (d *Document) IsAssignedTo(userID uuid.UUID) bool {
  return d.AssignedTo != nil && *d.AssignedTo == userID
}

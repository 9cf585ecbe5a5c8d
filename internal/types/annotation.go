package types

import (
  "time"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// CommentItem anchors one free-form comment to a contiguous span of the
// document's source or generated text. Duplicate spans are permitted and
// insertion order is preserved.
type CommentItem struct {
  SelectedText  string    `json:"selected_text"`
  Comment       string    `json:"comment"`
}

// Annotation holds one annotator's record for one document. At most one row
// exists per (document, annotator) pair; saves replace the row wholesale.
type Annotation struct {
  gorm.Model
  ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  DocumentID    uuid.UUID       `gorm:"not null;uniqueIndex:idx_document_annotator;column:document_id" json:"document_id"`
  Document      *Document       `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`
  AnnotatorID   uuid.UUID       `gorm:"not null;uniqueIndex:idx_document_annotator;column:annotator_id" json:"annotator_id"`
  Annotator     *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:AnnotatorID;references:ID" json:"-"`
  Evaluation    *bool           `gorm:"column:evaluation" json:"evaluation"`
  Comments      datatypes.JSON  `gorm:"column:comments" json:"comments"`
  TimeSpent     int             `gorm:"not null;default:0;column:time_spent" json:"time_spent"`
  IsCompleted   bool            `gorm:"not null;default:false;column:is_completed" json:"is_completed"`
  CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (Annotation) TableName() string {
  return "annotation"
}

package types

import (
  "time"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

const (
  RoleExpert = "expert"
  RoleAdmin  = "admin"
)

type User struct {
  gorm.Model
  ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  Username      string          `gorm:"uniqueIndex;not null;column:username" json:"username"`
  Email         string          `gorm:"column:email" json:"email"`
  FullName      string          `gorm:"column:full_name" json:"full_name"`
  Password      string          `gorm:"not null;column:password" json:"-"`
  Role          string          `gorm:"not null;default:expert;column:role" json:"role"`
  IsActive      bool            `gorm:"not null;default:true;column:is_active" json:"is_active"`
  CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
  UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
  return "user"
}

package services

import (
  "context"
  "fmt"
  "gorm.io/gorm"
  "github.com/google/uuid"
  "github.com/fangzhi-labs/annotation-backend/internal/apperrors"
  "github.com/fangzhi-labs/annotation-backend/internal/logger"
  "github.com/fangzhi-labs/annotation-backend/internal/repos"
  "github.com/fangzhi-labs/annotation-backend/internal/requestdata"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

type UserService interface {
  GetMe(ctx context.Context) (*types.User, error)
  ListExperts(ctx context.Context) ([]*types.User, error)
}

type userService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
  serviceLog := log.With("service", "UserService")
  return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperrors.ErrUnauthenticated
  }
  users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    return nil, fmt.Errorf("Failed to get current user: %w", err)
  }
  if len(users) == 0 {
    return nil, apperrors.ErrNotFound
  }
  return users[0], nil
}

// ListExperts backs the admin assignment view. Admin accounts are not listed:
// they never own annotation records.
func (us *userService) ListExperts(ctx context.Context) ([]*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if !rd.IsAdmin() {
    return nil, apperrors.ErrForbidden
  }
  experts, err := us.userRepo.ListByRole(ctx, nil, types.RoleExpert)
  if err != nil {
    return nil, fmt.Errorf("Failed to list experts: %w", err)
  }
  return experts, nil
}

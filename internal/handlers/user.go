package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/fangzhi-labs/annotation-backend/internal/services"
)

type UserHandler struct {
  userService     services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
  return &UserHandler{userService: userService}
}

func (uh *UserHandler) ListUsers(c *gin.Context) {
  experts, err := uh.userService.ListExperts(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  result := make([]gin.H, 0, len(experts))
  for _, user := range experts {
    result = append(result, gin.H{
      "id":         user.ID,
      "username":   user.Username,
      "email":      user.Email,
      "full_name":  user.FullName,
      "role":       user.Role,
      "is_active":  user.IsActive,
      "created_at": user.CreatedAt,
    })
  }
  c.JSON(http.StatusOK, result)
}

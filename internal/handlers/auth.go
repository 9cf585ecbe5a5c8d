package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/fangzhi-labs/annotation-backend/internal/services"
  "github.com/fangzhi-labs/annotation-backend/internal/types"
)

type AuthHandler struct {
  authService       services.AuthService
  userService       services.UserService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService) *AuthHandler {
  return &AuthHandler{authService: authService, userService: userService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
  var req struct {
    Username    string      `json:"username"`
    Email       string      `json:"email"`
    FullName    string      `json:"full_name"`
    Password    string      `json:"password"`
    Role        string      `json:"role"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  user := types.User{
    Username: req.Username,
    Email:    req.Email,
    FullName: req.FullName,
    Password: req.Password,
    Role:     req.Role,
  }
  if err := ah.authService.RegisterUser(c.Request.Context(), &user); err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "id":        user.ID,
    "username":  user.Username,
    "full_name": user.FullName,
    "role":      user.Role,
  })
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    Username      string      `json:"username"`
    Password      string      `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  user, accessToken, refreshToken, err := ah.authService.LoginUser(c.Request.Context(), req.Username, req.Password)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  accessTTL := ah.authService.GetAccessTTL()
  c.JSON(http.StatusOK, gin.H{
    "access_token":  accessToken,
    "refresh_token": refreshToken,
    "expires_in":    int(accessTTL.Seconds()),
    "user": gin.H{
      "id":        user.ID,
      "username":  user.Username,
      "full_name": user.FullName,
      "role":      user.Role,
    },
  })
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
  var req struct {
    RefreshToken  string      `json:"refresh_token"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  accessToken, refreshToken, err := ah.authService.RefreshUser(c.Request.Context(), req.RefreshToken)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  accessTTL := ah.authService.GetAccessTTL()
  c.JSON(http.StatusOK, gin.H{
    "access_token":  accessToken,
    "refresh_token": refreshToken,
    "expires_in":    int(accessTTL.Seconds()),
  })
}

func (ah *AuthHandler) Logout(c *gin.Context) {
  if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (ah *AuthHandler) Me(c *gin.Context) {
  me, err := ah.userService.GetMe(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "id":        me.ID,
    "username":  me.Username,
    "email":     me.Email,
    "full_name": me.FullName,
    "role":      me.Role,
  })
}

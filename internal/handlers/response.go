package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/fangzhi-labs/annotation-backend/internal/apperrors"
)

type APIError struct {
  Message     string	`json:"message"`
  Code	      string	`json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error	      APIError	`json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the error taxonomy to HTTP codes in one place so
// handlers stay mechanical.
func RespondServiceError(c *gin.Context, err error) {
  switch {
  case errors.Is(err, apperrors.ErrUnauthenticated):
    RespondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", err)
  case errors.Is(err, apperrors.ErrForbidden):
    RespondError(c, http.StatusForbidden, "FORBIDDEN", err)
  case errors.Is(err, apperrors.ErrNotFound):
    RespondError(c, http.StatusNotFound, "NOT_FOUND", err)
  case errors.Is(err, apperrors.ErrConflict):
    RespondError(c, http.StatusConflict, "CONFLICT", err)
  case apperrors.IsValidation(err):
    RespondError(c, http.StatusUnprocessableEntity, "VALIDATION", err)
  default:
    RespondError(c, http.StatusInternalServerError, "INTERNAL", err)
  }
}

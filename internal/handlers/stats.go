package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/fangzhi-labs/annotation-backend/internal/services"
)

type StatsHandler struct {
  statsService      services.StatsService
}

func NewStatsHandler(statsService services.StatsService) *StatsHandler {
  return &StatsHandler{statsService: statsService}
}

func (sh *StatsHandler) Overview(c *gin.Context) {
  stats, err := sh.statsService.Overview(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, stats)
}

func (sh *StatsHandler) MyStats(c *gin.Context) {
  stats, err := sh.statsService.MyStats(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, stats)
}

func (sh *StatsHandler) AllUserStats(c *gin.Context) {
  rows, err := sh.statsService.ApprovalRates(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, rows)
}

func (sh *StatsHandler) DocumentBreakdown(c *gin.Context) {
  rows, err := sh.statsService.DocumentBreakdown(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, rows)
}

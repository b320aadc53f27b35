package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/attendly/attendly-api/internal/service"
	"github.com/attendly/attendly-api/pkg/response"
)

// StatsHandler exposes derived attendance statistics.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler creates a new handler.
func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Attendance godoc
// @Summary Attendance statistics
// @Description Aggregates marked classes, optionally restricted to a single subject. Always computed fresh.
// @Tags Statistics
// @Produce json
// @Param subject_id query string false "Restrict to one subject"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /stats/attendance [get]
func (h *StatsHandler) Attendance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.service.GetAttendanceStats(c.Request.Context(), userID, c.Query("subject_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

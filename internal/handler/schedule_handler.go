package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/attendly/attendly-api/internal/models"
	"github.com/attendly/attendly-api/internal/service"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
	"github.com/attendly/attendly-api/pkg/response"
)

// ScheduleHandler exposes schedule generation and class listing.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler creates a new handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate godoc
// @Summary Generate scheduled classes from the active timetable
// @Description Replaces every class previously generated from the active timetable with a fresh expansion over the horizon.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.GenerateScheduleRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListClasses godoc
// @Summary List scheduled classes
// @Tags Schedule
// @Produce json
// @Param subject_id query string false "Subject filter"
// @Param timetable_id query string false "Timetable filter"
// @Param date query string false "Exact date (YYYY-MM-DD)"
// @Param from query string false "Start date inclusive"
// @Param to query string false "End date inclusive"
// @Param status query string false "Status filter"
// @Param marked query bool false "Only marked or unmarked classes"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes [get]
func (h *ScheduleHandler) ListClasses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	filter := models.ClassFilter{
		SubjectID:   c.Query("subject_id"),
		TimetableID: c.Query("timetable_id"),
		Date:        c.Query("date"),
		DateFrom:    c.Query("from"),
		DateTo:      c.Query("to"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 50),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ClassStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown class status"))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("marked"); raw != "" {
		marked, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "marked must be a boolean"))
			return
		}
		filter.Marked = &marked
	}

	classes, pagination, err := h.service.ListClasses(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

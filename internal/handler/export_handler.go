package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/attendly/attendly-api/internal/service"
	"github.com/attendly/attendly-api/pkg/response"
)

// ExportHandler streams rendered attendance reports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Attendance godoc
// @Summary Download the attendance report
// @Description Renders the per-subject attendance report as CSV or PDF.
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /export/attendance [get]
func (h *ExportHandler) Attendance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.AttendanceReport(c.Request.Context(), userID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Payload)
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	"github.com/attendly/attendly-api/internal/service"
)

type fakeExportSubjects struct{}

func (fakeExportSubjects) List(ctx context.Context, userID string, filter models.SubjectFilter) ([]models.Subject, int, error) {
	return []models.Subject{{ID: "subj-1", Name: "Math", Color: models.ColorBlue}}, 1, nil
}

type fakeExportClasses struct{}

func (fakeExportClasses) ListMarked(ctx context.Context, userID, subjectID string) ([]models.ScheduledClass, error) {
	return []models.ScheduledClass{{Attended: attendedValue(true)}}, nil
}

func newExportTestContext(t *testing.T, url string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, url, nil)
	return c, rec
}

func TestExportHandlerAttendanceCSV(t *testing.T) {
	handler := NewExportHandler(service.NewExportService(fakeExportSubjects{}, fakeExportClasses{}, zap.NewNop()))
	c, rec := newExportTestContext(t, "/export/attendance")
	authenticate(c)

	handler.Attendance(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Math,1,1,0,100%")
}

func TestExportHandlerAttendanceUnknownFormat(t *testing.T) {
	handler := NewExportHandler(service.NewExportService(fakeExportSubjects{}, fakeExportClasses{}, zap.NewNop()))
	c, rec := newExportTestContext(t, "/export/attendance?format=xlsx")
	authenticate(c)

	handler.Attendance(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

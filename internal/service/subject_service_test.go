package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

type subjectRepoStub struct {
	created        *models.Subject
	updateAffected int64
	deleteAffected int64
}

func (s *subjectRepoStub) List(ctx context.Context, userID string, filter models.SubjectFilter) ([]models.Subject, int, error) {
	return nil, 0, nil
}

func (s *subjectRepoStub) FindByID(ctx context.Context, userID, id string) (*models.Subject, error) {
	return &models.Subject{ID: id, UserID: userID}, nil
}

func (s *subjectRepoStub) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = "subj-new"
	s.created = subject
	return nil
}

func (s *subjectRepoStub) Update(ctx context.Context, subject *models.Subject) (int64, error) {
	return s.updateAffected, nil
}

func (s *subjectRepoStub) Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) (int64, error) {
	return s.deleteAffected, nil
}

type slotRemoverStub struct {
	removed int64
}

func (s *slotRemoverStub) RemoveSlotsBySubject(ctx context.Context, exec sqlx.ExtContext, userID, subjectID string) (int64, error) {
	return s.removed, nil
}

type classRemoverStub struct {
	removed int64
}

func (s *classRemoverStub) DeleteBySubject(ctx context.Context, exec sqlx.ExtContext, userID, subjectID string) (int64, error) {
	return s.removed, nil
}

func TestSubjectServiceCreateNormalisesColour(t *testing.T) {
	repo := &subjectRepoStub{}
	svc := NewSubjectService(repo, &slotRemoverStub{}, &classRemoverStub{}, nil, nil, nil, zap.NewNop())

	subject, err := svc.Create(context.Background(), "user-1", CreateSubjectRequest{Name: "  Math  ", Color: " Blue "})
	require.NoError(t, err)
	assert.Equal(t, "Math", subject.Name)
	assert.Equal(t, models.ColorBlue, subject.Color)
	assert.Equal(t, "user-1", subject.UserID)
}

func TestSubjectServiceCreateRejectsUnknownColour(t *testing.T) {
	repo := &subjectRepoStub{}
	svc := NewSubjectService(repo, &slotRemoverStub{}, &classRemoverStub{}, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "user-1", CreateSubjectRequest{Name: "Math", Color: "magenta"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestSubjectServiceUpdateNotFound(t *testing.T) {
	repo := &subjectRepoStub{updateAffected: 0}
	svc := NewSubjectService(repo, &slotRemoverStub{}, &classRemoverStub{}, nil, nil, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), "user-1", "missing", UpdateSubjectRequest{Name: "Math", Color: "red"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceDeleteCascades(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &subjectRepoStub{deleteAffected: 1}
	cache := &invalidatorStub{}
	svc := NewSubjectService(repo, &slotRemoverStub{removed: 2}, &classRemoverStub{removed: 9}, tx, cache, nil, zap.NewNop())

	result, err := svc.Delete(context.Background(), "user-1", "subj-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.SlotsRemoved)
	assert.Equal(t, int64(9), result.ClassesRemoved)
	assert.Equal(t, []string{"dashboard:user-1*"}, cache.patterns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectServiceDeleteNotFound(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &subjectRepoStub{deleteAffected: 0}
	svc := NewSubjectService(repo, &slotRemoverStub{}, &classRemoverStub{}, tx, nil, nil, zap.NewNop())

	_, err := svc.Delete(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendly-api/internal/models"
)

func TestSubjectRepositoryListWithSearch(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "color", "created_at"}).
		AddRow("subj-1", "user-1", "Mathematics", "blue", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, color, created_at FROM subjects WHERE user_id = $1 AND LOWER(name) LIKE $2")).
		WithArgs("user-1", "%math%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects WHERE user_id = $1 AND LOWER(name) LIKE $2")).
		WithArgs("user-1", "%math%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subjects, total, err := repo.List(context.Background(), "user-1", models.SubjectFilter{Search: "Math"})
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.ColorBlue, subjects[0].Color)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	subject := &models.Subject{UserID: "user-1", Name: "Math", Color: models.ColorBlue}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.NotEmpty(t, subject.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE user_id = $1 AND id = $2")).
		WithArgs("user-1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "color", "created_at"}))

	_, err := repo.FindByID(context.Background(), "user-1", "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryUpdate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET name")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Update(context.Background(), &models.Subject{ID: "subj-1", UserID: "user-1", Name: "Physics", Color: models.ColorTeal})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryDelete(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE user_id = $1 AND id = $2")).
		WithArgs("user-1", "subj-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), db, "user-1", "subj-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

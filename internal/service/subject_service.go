package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, userID string, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, userID, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) (int64, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) (int64, error)
}

type subjectSlotRemover interface {
	RemoveSlotsBySubject(ctx context.Context, exec sqlx.ExtContext, userID, subjectID string) (int64, error)
}

type subjectClassRemover interface {
	DeleteBySubject(ctx context.Context, exec sqlx.ExtContext, userID, subjectID string) (int64, error)
}

// CreateSubjectRequest captures fields for creating subjects.
type CreateSubjectRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"required"`
}

// UpdateSubjectRequest modifies subject fields.
type UpdateSubjectRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"required"`
}

// DeleteSubjectResult reports what a cascading delete removed.
type DeleteSubjectResult struct {
	SlotsRemoved   int64 `json:"slots_removed"`
	ClassesRemoved int64 `json:"classes_removed"`
}

// SubjectService handles subject workflows including the delete cascade.
type SubjectService struct {
	repo       subjectRepository
	timetables subjectSlotRemover
	classes    subjectClassRemover
	tx         txProvider
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, timetables subjectSlotRemover, classes subjectClassRemover, tx txProvider, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, timetables: timetables, classes: classes, tx: tx, cache: cache, validator: validate, logger: logger}
}

// List returns the user's subjects.
func (s *SubjectService) List(ctx context.Context, userID string, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return subjects, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a subject by identifier.
func (s *SubjectService) Get(ctx context.Context, userID, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a new subject with one of the eight supported colours.
func (s *SubjectService) Create(ctx context.Context, userID string, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	color := models.SubjectColor(strings.ToLower(strings.TrimSpace(req.Color)))
	if !color.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject colour")
	}

	subject := &models.Subject{
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Color:  color,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, userID, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	color := models.SubjectColor(strings.ToLower(strings.TrimSpace(req.Color)))
	if !color.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject colour")
	}

	subject := &models.Subject{ID: id, UserID: userID, Name: strings.TrimSpace(req.Name), Color: color}
	affected, err := s.repo.Update(ctx, subject)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return subject, nil
}

// Delete removes a subject and cascades: every timetable slot referencing it
// is stripped and every scheduled class for it is deleted, all in one
// transaction.
func (s *SubjectService) Delete(ctx context.Context, userID, id string) (*DeleteSubjectResult, error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	slots, err := s.timetables.RemoveSlotsBySubject(ctx, tx, userID, id)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove subject slots")
		return nil, err
	}
	classes, err := s.classes.DeleteBySubject(ctx, tx, userID, id)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove subject classes")
		return nil, err
	}
	affected, err := s.repo.Delete(ctx, tx, userID, id)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
		return nil, err
	}
	if affected == 0 {
		err = appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit subject delete")
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern(userID))
	}
	s.logger.Info("subject deleted",
		zap.String("subject_id", id),
		zap.Int64("slots_removed", slots),
		zap.Int64("classes_removed", classes),
	)
	return &DeleteSubjectResult{SlotsRemoved: slots, ClassesRemoved: classes}, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/attendly/attendly-api/internal/models"
)

// SubjectRepository handles persistence for subjects. Every query is scoped
// by owner: a subject is never visible outside its user.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns the user's subjects matching filters with pagination metadata.
func (r *SubjectRepository) List(ctx context.Context, userID string, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE user_id = $1"
	args := []interface{}{userID}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	if sortBy != "name" && sortBy != "created_at" {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, user_id, name, color, created_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	return subjects, total, nil
}

// FindByID returns a subject owned by the user.
func (r *SubjectRepository) FindByID(ctx context.Context, userID, id string) (*models.Subject, error) {
	const query = `SELECT id, user_id, name, color, created_at FROM subjects WHERE user_id = $1 AND id = $2`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, userID, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO subjects (id, user_id, name, color, created_at) VALUES (:id, :user_id, :name, :color, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject's name and colour.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) (int64, error) {
	const query = `UPDATE subjects SET name = :name, color = :color WHERE user_id = :user_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, subject)
	if err != nil {
		return 0, fmt.Errorf("update subject: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a subject record inside the caller's transaction.
func (r *SubjectRepository) Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) (int64, error) {
	res, err := exec.ExecContext(ctx, `DELETE FROM subjects WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return 0, fmt.Errorf("delete subject: %w", err)
	}
	return res.RowsAffected()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const curriculumColumns = "id, code, name, term, subject_ids, created_at, updated_at"

// CurriculumRepository manages curricula.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// List returns curricula, optionally restricted to a term, in stored order.
func (r *CurriculumRepository) List(ctx context.Context, term string) ([]models.Curriculum, error) {
	query := "SELECT " + curriculumColumns + " FROM curricula"
	var args []interface{}
	if term != "" {
		query += " WHERE term = $1"
		args = append(args, term)
	}
	query += " ORDER BY created_at ASC, id ASC"

	var curricula []models.Curriculum
	if err := r.db.SelectContext(ctx, &curricula, query, args...); err != nil {
		return nil, fmt.Errorf("list curricula: %w", err)
	}
	return curricula, nil
}

// FindByID loads a curriculum.
func (r *CurriculumRepository) FindByID(ctx context.Context, id string) (*models.Curriculum, error) {
	var curriculum models.Curriculum
	if err := r.db.GetContext(ctx, &curriculum, "SELECT "+curriculumColumns+" FROM curricula WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &curriculum, nil
}

// ExistsByCode checks curriculum code uniqueness.
func (r *CurriculumRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM curricula WHERE LOWER(code) = LOWER($1) LIMIT 1", code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check curriculum code: %w", err)
	}
	return true, nil
}

// Create inserts a curriculum.
func (r *CurriculumRepository) Create(ctx context.Context, curriculum *models.Curriculum) error {
	if curriculum.ID == "" {
		curriculum.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if curriculum.CreatedAt.IsZero() {
		curriculum.CreatedAt = now
	}
	curriculum.UpdatedAt = now

	const query = `INSERT INTO curricula (id, code, name, term, subject_ids, created_at, updated_at) VALUES (:id, :code, :name, :term, :subject_ids, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, curriculum); err != nil {
		return fmt.Errorf("create curriculum: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const sessionColumns = "s.id, s.subject_id, s.teacher_id, s.room_id, s.time_slot_id, s.day, s.term, s.is_override, s.created_at, s.updated_at"

const insertSessionQuery = `INSERT INTO sessions (id, subject_id, teacher_id, room_id, time_slot_id, day, term, is_override, created_at, updated_at) VALUES (:id, :subject_id, :teacher_id, :room_id, :time_slot_id, :day, :term, :is_override, :created_at, :updated_at)`

// SessionRepository persists scheduled class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns sessions ordered by term, weekday, slot start and id.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions s LEFT JOIN time_slots ts ON ts.id = s.time_slot_id WHERE 1=1"
	var conditions []string
	var args []interface{}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("s.term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.OverrideOnly {
		conditions = append(conditions, "s.is_override = TRUE")
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.term ASC, array_position(ARRAY['Mon','Tue','Wed','Thu','Fri','Sat','Sun'], s.day) ASC, ts.start_time ASC, s.id ASC"

	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListOverrides returns every manually placed session.
func (r *SessionRepository) ListOverrides(ctx context.Context) ([]models.Session, error) {
	return r.List(ctx, models.SessionFilter{OverrideOnly: true})
}

// FindByID loads a session.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := r.db.GetContext(ctx, &session, "SELECT "+sessionColumns+" FROM sessions s WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	stampSession(session, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertSessionQuery, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update rewrites a session.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET subject_id = :subject_id, teacher_id = :teacher_id, room_id = :room_id, time_slot_id = :time_slot_id, day = :day, term = :term, is_override = :is_override, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ReplaceGenerated swaps the auto-generated sessions of a term, or of every
// term when term is empty, for the given set in one transaction. Overrides
// are never touched. It returns how many sessions were removed.
func (r *SessionRepository) ReplaceGenerated(ctx context.Context, term string, sessions []models.Session) (removed int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace sessions: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `DELETE FROM sessions WHERE is_override = FALSE`
	var args []interface{}
	if term != "" {
		query += ` AND term = $1`
		args = append(args, term)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear generated sessions: %w", err)
	}
	removed, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared sessions: %w", err)
	}

	now := time.Now().UTC()
	for i := range sessions {
		stampSession(&sessions[i], now)
		if _, err = tx.NamedExecContext(ctx, insertSessionQuery, &sessions[i]); err != nil {
			return 0, fmt.Errorf("insert generated session: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace sessions: %w", err)
	}
	return removed, nil
}

// Counts returns the total number of sessions and how many are overrides.
func (r *SessionRepository) Counts(ctx context.Context) (total, overrides int, err error) {
	var row struct {
		Total     int `db:"total"`
		Overrides int `db:"overrides"`
	}
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_override) AS overrides FROM sessions`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("count sessions: %w", err)
	}
	return row.Total, row.Overrides, nil
}

func stampSession(session *models.Session, now time.Time) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
}

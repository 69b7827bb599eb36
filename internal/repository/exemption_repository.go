package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const exemptionColumns = "id, entity_type, entity_id, conflict_kind, reason, expires_at, created_at, updated_at"

// ExemptionRepository stores conflict exemptions.
type ExemptionRepository struct {
	db *sqlx.DB
}

// NewExemptionRepository constructs the repository.
func NewExemptionRepository(db *sqlx.DB) *ExemptionRepository {
	return &ExemptionRepository{db: db}
}

// ListActive returns exemptions without expiry or expiring after now.
func (r *ExemptionRepository) ListActive(ctx context.Context, now time.Time) ([]models.ConflictExemption, error) {
	query := "SELECT " + exemptionColumns + " FROM conflict_exemptions WHERE expires_at IS NULL OR expires_at > $1 ORDER BY created_at ASC, id ASC"
	var exemptions []models.ConflictExemption
	if err := r.db.SelectContext(ctx, &exemptions, query, now); err != nil {
		return nil, fmt.Errorf("list active exemptions: %w", err)
	}
	return exemptions, nil
}

// FindByKey loads the exemption for an (entity, id, kind) key regardless of expiry.
func (r *ExemptionRepository) FindByKey(ctx context.Context, entity models.EntityType, entityID string, kind models.ConflictKind) (*models.ConflictExemption, error) {
	query := "SELECT " + exemptionColumns + " FROM conflict_exemptions WHERE entity_type = $1 AND entity_id = $2 AND conflict_kind = $3"
	var exemption models.ConflictExemption
	if err := r.db.GetContext(ctx, &exemption, query, entity, entityID, kind); err != nil {
		return nil, err
	}
	return &exemption, nil
}

// Create inserts an exemption.
func (r *ExemptionRepository) Create(ctx context.Context, exemption *models.ConflictExemption) error {
	if exemption.ID == "" {
		exemption.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exemption.CreatedAt.IsZero() {
		exemption.CreatedAt = now
	}
	exemption.UpdatedAt = now

	const query = `INSERT INTO conflict_exemptions (id, entity_type, entity_id, conflict_kind, reason, expires_at, created_at, updated_at) VALUES (:id, :entity_type, :entity_id, :conflict_kind, :reason, :expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exemption); err != nil {
		return fmt.Errorf("create exemption: %w", err)
	}
	return nil
}

// Update replaces the reason and expiry of an existing exemption.
func (r *ExemptionRepository) Update(ctx context.Context, exemption *models.ConflictExemption) error {
	exemption.UpdatedAt = time.Now().UTC()
	const query = `UPDATE conflict_exemptions SET reason = :reason, expires_at = :expires_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, exemption); err != nil {
		return fmt.Errorf("update exemption: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type exemptionRepository interface {
	ListActive(ctx context.Context, now time.Time) ([]models.ConflictExemption, error)
	FindByKey(ctx context.Context, entity models.EntityType, entityID string, kind models.ConflictKind) (*models.ConflictExemption, error)
	Create(ctx context.Context, exemption *models.ConflictExemption) error
	Update(ctx context.Context, exemption *models.ConflictExemption) error
}

// CreateExemptionRequest is the payload for granting an exemption.
type CreateExemptionRequest struct {
	Type         string     `json:"type" validate:"required,entitytype"`
	EntityID     string     `json:"entity_id" validate:"required,max=50"`
	ConflictType string     `json:"conflict_type" validate:"required,conflictkind"`
	Reason       string     `json:"reason" validate:"required,min=5,max=500"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// ExemptionService grants and lists conflict exemptions.
type ExemptionService struct {
	repo      exemptionRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExemptionService constructs the service.
func NewExemptionService(repo exemptionRepository, validate *validator.Validate, logger *zap.Logger) *ExemptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExemptionService{repo: repo, validator: defaultValidator(validate), logger: logger, now: time.Now}
}

// ListActive returns exemptions in force right now.
func (s *ExemptionService) ListActive(ctx context.Context) ([]models.ConflictExemption, error) {
	exemptions, err := s.repo.ListActive(ctx, s.now().UTC())
	if err != nil {
		return nil, internalError(err, "failed to list exemptions")
	}
	return exemptions, nil
}

// Create grants an exemption. An expired exemption on the same key is
// replaced in place; an active one is a conflict. The boolean reports
// whether a new record was inserted.
func (s *ExemptionService) Create(ctx context.Context, req CreateExemptionRequest) (*models.ConflictExemption, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, invalidPayload(err, "invalid exemption payload")
	}
	now := s.now().UTC()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "expires_at must be in the future")
	}

	entity := models.EntityType(req.Type)
	kind := models.ConflictKind(req.ConflictType)
	entityID := strings.TrimSpace(req.EntityID)
	reason := strings.TrimSpace(req.Reason)

	existing, err := s.repo.FindByKey(ctx, entity, entityID, kind)
	switch {
	case err == nil:
		if existing.ActiveAt(now) {
			return nil, false, appErrors.Clone(appErrors.ErrConflict, "an active exemption already exists for this entity and conflict type")
		}
		existing.Reason = reason
		existing.ExpiresAt = req.ExpiresAt
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, false, internalError(err, "failed to renew exemption")
		}
		s.logger.Info("exemption renewed", exemptionFields(existing)...)
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, internalError(err, "failed to load exemption")
	}

	exemption := &models.ConflictExemption{
		EntityType:   entity,
		EntityID:     entityID,
		ConflictKind: kind,
		Reason:       reason,
		ExpiresAt:    req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, exemption); err != nil {
		return nil, false, internalError(err, "failed to create exemption")
	}
	s.logger.Info("exemption granted", exemptionFields(exemption)...)
	return exemption, true, nil
}

func exemptionFields(e *models.ConflictExemption) []zap.Field {
	fields := []zap.Field{
		zap.String("exemption_id", e.ID),
		zap.String("entity_type", string(e.EntityType)),
		zap.String("entity_id", e.EntityID),
		zap.String("conflict_kind", string(e.ConflictKind)),
	}
	if e.ExpiresAt != nil {
		fields = append(fields, zap.Time("expires_at", *e.ExpiresAt))
	}
	return fields
}

package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
)

type timeSlotRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	Update(ctx context.Context, slot *models.TimeSlot) error
}

// TimeSlotRequest is the create and update payload for time slots.
type TimeSlotRequest struct {
	Label     string `json:"label" validate:"required,max=50"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock,clockafter=StartTime"`
	IsActive  *bool  `json:"is_active"`
}

// TimeSlotService manages the daily periods.
type TimeSlotService struct {
	repo      timeSlotRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimeSlotService constructs the service.
func NewTimeSlotService(repo timeSlotRepository, validate *validator.Validate, logger *zap.Logger) *TimeSlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{repo: repo, validator: defaultValidator(validate), logger: logger}
}

// List returns slots ordered by start time.
func (s *TimeSlotService) List(ctx context.Context, activeOnly bool) ([]models.TimeSlot, error) {
	slots, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, internalError(err, "failed to list time slots")
	}
	return slots, nil
}

// Get returns one slot.
func (s *TimeSlotService) Get(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "time slot not found", "failed to load time slot")
	}
	return slot, nil
}

// Create adds a slot. Slots are active unless stated otherwise.
func (s *TimeSlotService) Create(ctx context.Context, req TimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid time slot payload")
	}
	slot := &models.TimeSlot{
		Label:     strings.TrimSpace(req.Label),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, internalError(err, "failed to create time slot")
	}
	return slot, nil
}

// Update rewrites a slot. A missing is_active keeps the stored flag.
func (s *TimeSlotService) Update(ctx context.Context, id string, req TimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid time slot payload")
	}
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "time slot not found", "failed to load time slot")
	}
	slot.Label = strings.TrimSpace(req.Label)
	slot.StartTime = req.StartTime
	slot.EndTime = req.EndTime
	if req.IsActive != nil {
		slot.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, internalError(err, "failed to update time slot")
	}
	s.logger.Info("time slot updated", zap.String("time_slot_id", slot.ID), zap.Bool("active", slot.IsActive))
	return slot, nil
}

package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, page, size int) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
}

// CreateRoomRequest is the payload for creating rooms.
type CreateRoomRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=1000"`
}

// RoomService manages rooms.
type RoomService struct {
	repo      roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs the service.
func NewRoomService(repo roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, validator: defaultValidator(validate), logger: logger}
}

// List returns rooms in stored order.
func (s *RoomService) List(ctx context.Context, page, size int) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, nil, internalError(err, "failed to list rooms")
	}
	page, size = normalisePage(page, size)
	return rooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a room.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "room not found", "failed to load room")
	}
	return room, nil
}

// Create adds a room with a unique name.
func (s *RoomService) Create(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid room payload")
	}
	req.Name = strings.TrimSpace(req.Name)

	exists, err := s.repo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, internalError(err, "failed to check room name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "room name already exists")
	}

	room := &models.Room{Name: req.Name, Capacity: req.Capacity}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, internalError(err, "failed to create room")
	}
	return room, nil
}

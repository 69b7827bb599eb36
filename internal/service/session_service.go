package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type roomFinder interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type timeSlotFinder interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

// SessionReferences groups the lookups used to verify a manual class.
type SessionReferences struct {
	Subjects  subjectFinder
	Teachers  teacherFinder
	Rooms     roomFinder
	TimeSlots timeSlotFinder
}

// ClassRequest is the create and update payload for manual classes.
type ClassRequest struct {
	SubjectID  string `json:"subject_id" validate:"required"`
	TeacherID  string `json:"teacher_id" validate:"required"`
	RoomID     string `json:"room_id" validate:"required"`
	TimeSlotID string `json:"time_slot_id" validate:"required"`
	Day        string `json:"day" validate:"required,weekday"`
	Term       string `json:"term" validate:"required,max=20"`
}

// SessionService manages class sessions outside of generation runs. Every
// session it writes is an override.
type SessionService struct {
	repo      sessionRepository
	refs      SessionReferences
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(repo sessionRepository, refs SessionReferences, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, refs: refs, validator: defaultValidator(validate), logger: logger}
}

// List returns the sessions of a term, or of every term.
func (s *SessionService) List(ctx context.Context, term string) ([]models.Session, error) {
	sessions, err := s.repo.List(ctx, models.SessionFilter{Term: strings.TrimSpace(term)})
	if err != nil {
		return nil, internalError(err, "failed to list classes")
	}
	return sessions, nil
}

// Get returns one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "class not found", "failed to load class")
	}
	return session, nil
}

// Create stores a manual class. Manual classes are authoritative and are not
// checked against existing occupancy.
func (s *SessionService) Create(ctx context.Context, req ClassRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid class payload")
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	session := &models.Session{}
	applyClassRequest(session, req)
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, internalError(err, "failed to create class")
	}
	s.logger.Info("manual class created",
		zap.String("class_id", session.ID),
		zap.String("term", session.Term),
		zap.String("day", string(session.Day)),
	)
	return session, nil
}

// Update edits a class and marks it as an override.
func (s *SessionService) Update(ctx context.Context, id string, req ClassRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid class payload")
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "class not found", "failed to load class")
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	wasGenerated := !session.IsOverride
	applyClassRequest(session, req)
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, internalError(err, "failed to update class")
	}
	s.logger.Info("class updated", zap.String("class_id", session.ID), zap.Bool("promoted_to_override", wasGenerated))
	return session, nil
}

// Delete removes a manual class. Generated classes belong to the next run.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "class not found", "failed to load class")
	}
	if !session.IsOverride {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "only manual classes can be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete class")
	}
	return nil
}

func applyClassRequest(session *models.Session, req ClassRequest) {
	session.SubjectID = req.SubjectID
	session.TeacherID = req.TeacherID
	session.RoomID = req.RoomID
	session.TimeSlotID = req.TimeSlotID
	session.Day = models.Day(req.Day)
	session.Term = strings.TrimSpace(req.Term)
	session.IsOverride = true
}

func (s *SessionService) checkReferences(ctx context.Context, req ClassRequest) error {
	var missing []string
	check := func(kind, id string, err error) error {
		if err == nil {
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			missing = append(missing, kind+" "+id)
			return nil
		}
		return internalError(err, "failed to load "+kind)
	}

	_, err := s.refs.Subjects.FindByID(ctx, req.SubjectID)
	if err := check("subject", req.SubjectID, err); err != nil {
		return err
	}
	_, err = s.refs.Teachers.FindByID(ctx, req.TeacherID)
	if err := check("teacher", req.TeacherID, err); err != nil {
		return err
	}
	_, err = s.refs.Rooms.FindByID(ctx, req.RoomID)
	if err := check("room", req.RoomID, err); err != nil {
		return err
	}
	_, err = s.refs.TimeSlots.FindByID(ctx, req.TimeSlotID)
	if err := check("time slot", req.TimeSlotID, err); err != nil {
		return err
	}

	if len(missing) > 0 {
		return unknownReferences("references", missing)
	}
	return nil
}

package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
}

// subjectResolver reports which subject ids exist.
type subjectResolver interface {
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
}

// CreateTeacherRequest is the payload for creating teachers.
type CreateTeacherRequest struct {
	Code                string   `json:"code" validate:"required,max=20"`
	Name                string   `json:"name" validate:"required,min=2,max=100"`
	QualifiedSubjectIDs []string `json:"qualified_subject_ids" validate:"required,min=1,unique,dive,required"`
}

// TeacherService manages teacher records.
type TeacherService struct {
	repo      teacherRepository
	subjects  subjectResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a teacher service.
func NewTeacherService(repo teacherRepository, subjects subjectResolver, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, subjects: subjects, validator: defaultValidator(validate), logger: logger}
}

// List returns teachers with pagination.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list teachers")
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "teacher not found", "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher qualified for existing subjects.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid teacher payload")
	}
	req.Code = strings.TrimSpace(req.Code)

	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, internalError(err, "failed to check teacher code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher code already exists")
	}

	found, err := s.subjects.ExistingIDs(ctx, req.QualifiedSubjectIDs)
	if err != nil {
		return nil, internalError(err, "failed to resolve subjects")
	}
	if missing := missingIDs(req.QualifiedSubjectIDs, found); len(missing) > 0 {
		return nil, unknownReferences("subjects", missing)
	}

	teacher := &models.Teacher{
		Code:                req.Code,
		Name:                strings.TrimSpace(req.Name),
		QualifiedSubjectIDs: req.QualifiedSubjectIDs,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, internalError(err, "failed to create teacher")
	}
	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID), zap.Int("subjects", len(teacher.QualifiedSubjectIDs)))
	return teacher, nil
}

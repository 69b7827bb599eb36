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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByCardID(ctx context.Context, cardID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

type curriculumFinder interface {
	FindByID(ctx context.Context, id string) (*models.Curriculum, error)
}

// CreateStudentRequest is the payload for enrolling students.
type CreateStudentRequest struct {
	CardID          string `json:"card_id" validate:"required,max=50"`
	Name            string `json:"name" validate:"required,min=2,max=100"`
	CurriculumID    string `json:"curriculum_id" validate:"required"`
	EnrollmentCount int    `json:"enrollment_count" validate:"omitempty,min=1,max=10"`
}

// StudentService manages students.
type StudentService struct {
	repo        studentRepository
	curriculums curriculumFinder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(repo studentRepository, curriculums curriculumFinder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, curriculums: curriculums, validator: defaultValidator(validate), logger: logger}
}

// List returns students with pagination.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list students")
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Create enrolls a student into an existing curriculum.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid student payload")
	}
	req.CardID = strings.TrimSpace(req.CardID)
	if req.EnrollmentCount == 0 {
		req.EnrollmentCount = 1
	}

	exists, err := s.repo.ExistsByCardID(ctx, req.CardID)
	if err != nil {
		return nil, internalError(err, "failed to check student card")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student card id already exists")
	}

	if _, err := s.curriculums.FindByID(ctx, req.CurriculumID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unknownReferences("curriculum", []string{req.CurriculumID})
		}
		return nil, internalError(err, "failed to load curriculum")
	}

	student := &models.Student{
		CardID:          req.CardID,
		Name:            strings.TrimSpace(req.Name),
		CurriculumID:    req.CurriculumID,
		EnrollmentCount: req.EnrollmentCount,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, internalError(err, "failed to create student")
	}
	return student, nil
}

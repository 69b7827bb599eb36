package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type curriculumRepository interface {
	List(ctx context.Context, term string) ([]models.Curriculum, error)
	FindByID(ctx context.Context, id string) (*models.Curriculum, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, curriculum *models.Curriculum) error
}

// CreateCurriculumRequest is the payload for creating curricula.
type CreateCurriculumRequest struct {
	Code       string   `json:"code" validate:"required,max=20"`
	Name       string   `json:"name" validate:"required,min=2,max=100"`
	Term       string   `json:"term" validate:"required,max=20"`
	SubjectIDs []string `json:"subject_ids" validate:"required,min=1,unique,dive,required"`
}

// CurriculumService manages curricula.
type CurriculumService struct {
	repo      curriculumRepository
	subjects  subjectResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCurriculumService constructs the service.
func NewCurriculumService(repo curriculumRepository, subjects subjectResolver, validate *validator.Validate, logger *zap.Logger) *CurriculumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{repo: repo, subjects: subjects, validator: defaultValidator(validate), logger: logger}
}

// List returns curricula for a term, or all when term is empty.
func (s *CurriculumService) List(ctx context.Context, term string) ([]models.Curriculum, error) {
	curricula, err := s.repo.List(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, internalError(err, "failed to list curricula")
	}
	return curricula, nil
}

// Get returns one curriculum.
func (s *CurriculumService) Get(ctx context.Context, id string) (*models.Curriculum, error) {
	curriculum, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "curriculum not found", "failed to load curriculum")
	}
	return curriculum, nil
}

// Create adds a curriculum whose subjects all exist. Subject order is kept.
func (s *CurriculumService) Create(ctx context.Context, req CreateCurriculumRequest) (*models.Curriculum, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid curriculum payload")
	}
	req.Code = strings.TrimSpace(req.Code)

	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, internalError(err, "failed to check curriculum code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "curriculum code already exists")
	}

	found, err := s.subjects.ExistingIDs(ctx, req.SubjectIDs)
	if err != nil {
		return nil, internalError(err, "failed to resolve subjects")
	}
	if missing := missingIDs(req.SubjectIDs, found); len(missing) > 0 {
		return nil, unknownReferences("subjects", missing)
	}

	curriculum := &models.Curriculum{
		Code:       req.Code,
		Name:       strings.TrimSpace(req.Name),
		Term:       strings.TrimSpace(req.Term),
		SubjectIDs: req.SubjectIDs,
	}
	if err := s.repo.Create(ctx, curriculum); err != nil {
		return nil, internalError(err, "failed to create curriculum")
	}
	s.logger.Info("curriculum created", zap.String("curriculum_id", curriculum.ID), zap.String("term", curriculum.Term))
	return curriculum, nil
}

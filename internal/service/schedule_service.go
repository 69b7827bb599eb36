package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const (
	generationOutcomeSuccess = "success"
	generationOutcomeDryRun  = "dry_run"
	generationOutcomeLocked  = "locked"
	generationOutcomeFailed  = "failed"

	coverageReportTTL = 7 * 24 * time.Hour
)

type subjectLister interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type teacherLister interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
}

type roomLister interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type timeSlotLister interface {
	List(ctx context.Context, activeOnly bool) ([]models.TimeSlot, error)
}

type curriculumLister interface {
	List(ctx context.Context, term string) ([]models.Curriculum, error)
}

type studentLister interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

type overrideLister interface {
	ListOverrides(ctx context.Context) ([]models.Session, error)
}

type activeExemptionLister interface {
	ListActive(ctx context.Context, now time.Time) ([]models.ConflictExemption, error)
}

type generatedSessionStore interface {
	ReplaceGenerated(ctx context.Context, term string, sessions []models.Session) (int64, error)
}

type generationLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key, token string) error
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type generationMetrics interface {
	ObserveGeneration(outcome string, duration time.Duration, generated, unscheduled int)
}

// ScheduleSources bundles the stores a generation run reads and writes.
type ScheduleSources struct {
	Subjects   subjectLister
	Teachers   teacherLister
	Rooms      roomLister
	TimeSlots  timeSlotLister
	Curricula  curriculumLister
	Students   studentLister
	Overrides  overrideLister
	Exemptions activeExemptionLister
	Sessions   generatedSessionStore
}

// ScheduleConfig tunes generation runs.
type ScheduleConfig struct {
	LockEnabled    bool
	LockTTL        time.Duration
	PersistDefault bool
}

// ScheduleService orchestrates timetable generation runs.
type ScheduleService struct {
	sources   ScheduleSources
	allocator *scheduler.Allocator
	lock      generationLock
	cache     reportCache
	metrics   generationMetrics
	config    ScheduleConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService constructs the service. lock, cache and metrics may be nil.
func NewScheduleService(sources ScheduleSources, allocator *scheduler.Allocator, lock generationLock, cache reportCache, metrics generationMetrics, cfg ScheduleConfig, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if allocator == nil {
		allocator = scheduler.NewAllocator(scheduler.AllocatorConfig{}, logger)
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &ScheduleService{
		sources:   sources,
		allocator: allocator,
		lock:      lock,
		cache:     cache,
		metrics:   metrics,
		config:    cfg,
		validator: defaultValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
}

type heldLock struct {
	key   string
	token string
}

// Generate runs the allocator for a term, or for every term when the request
// term is empty, and persists the generated sessions unless it is a dry run.
func (s *ScheduleService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid generation payload")
	}
	term := strings.TrimSpace(req.Term)
	persist := s.config.PersistDefault
	if req.DryRun != nil {
		persist = !*req.DryRun
	}

	start := s.now()
	held, err := s.acquire(ctx, nil, repository.GenerationLockKey(term))
	if err != nil {
		s.observe(generationOutcome(err), start, 0, 0)
		return nil, err
	}
	defer func() { s.release(held) }()

	in, err := s.load(ctx, term, start)
	if err != nil {
		s.observe(generationOutcomeFailed, start, 0, 0)
		return nil, err
	}

	// A run over every term also excludes concurrent single-term runs.
	if term == "" {
		held, err = s.acquire(ctx, held, termLockKeys(in.Curricula)...)
		if err != nil {
			s.observe(generationOutcome(err), start, 0, 0)
			return nil, err
		}
	}

	result, err := s.allocator.Allocate(in)
	if err != nil {
		s.observe(generationOutcomeFailed, start, 0, 0)
		return nil, allocationError(err)
	}

	resp := &dto.GenerateTimetableResponse{
		Term:           term,
		DryRun:         !persist,
		GeneratedCount: len(result.Generated),
		Coverage:       nonNilCoverage(result.Coverage),
		Unscheduled:    nonNilCoverage(result.Unscheduled()),
		GeneratedAt:    start.UTC(),
	}

	if persist {
		removed, err := s.sources.Sessions.ReplaceGenerated(ctx, term, result.Generated)
		if err != nil {
			s.observe(generationOutcomeFailed, start, 0, 0)
			return nil, internalError(err, "failed to persist generated classes")
		}
		resp.RemovedCount = removed
		s.storeReport(ctx, resp)
	}

	resp.Classes = make([]models.Session, 0, len(result.Overrides)+len(result.Generated))
	resp.Classes = append(resp.Classes, result.Overrides...)
	resp.Classes = append(resp.Classes, result.Generated...)

	outcome := generationOutcomeSuccess
	if !persist {
		outcome = generationOutcomeDryRun
	}
	duration := s.observe(outcome, start, resp.GeneratedCount, len(resp.Unscheduled))
	s.logger.Info("timetable generated",
		zap.String("term", term),
		zap.Bool("dry_run", resp.DryRun),
		zap.Int("generated", resp.GeneratedCount),
		zap.Int("overrides", len(result.Overrides)),
		zap.Int("unscheduled", len(resp.Unscheduled)),
		zap.Int64("removed", resp.RemovedCount),
		zap.Duration("duration", duration),
	)
	return resp, nil
}

// Coverage returns the report of the last persisted run for a term.
func (s *ScheduleService) Coverage(ctx context.Context, term string) (*dto.CoverageReport, error) {
	if s.cache == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no generation report available")
	}
	var report dto.CoverageReport
	if err := s.cache.Get(ctx, repository.CoverageKey(strings.TrimSpace(term)), &report); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no generation report available")
		}
		return nil, internalError(err, "failed to load generation report")
	}
	return &report, nil
}

func (s *ScheduleService) load(ctx context.Context, term string, now time.Time) (scheduler.Input, error) {
	in := scheduler.Input{Term: term, Now: now}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		in.Subjects, err = s.sources.Subjects.ListAll(gctx)
		return loadErr(err, "subjects")
	})
	g.Go(func() (err error) {
		in.Teachers, err = s.sources.Teachers.ListAll(gctx)
		return loadErr(err, "teachers")
	})
	g.Go(func() (err error) {
		in.Rooms, err = s.sources.Rooms.ListAll(gctx)
		return loadErr(err, "rooms")
	})
	g.Go(func() (err error) {
		in.TimeSlots, err = s.sources.TimeSlots.List(gctx, true)
		return loadErr(err, "time slots")
	})
	g.Go(func() (err error) {
		in.Curricula, err = s.sources.Curricula.List(gctx, term)
		return loadErr(err, "curricula")
	})
	g.Go(func() (err error) {
		in.Students, err = s.sources.Students.ListAll(gctx)
		return loadErr(err, "students")
	})
	g.Go(func() (err error) {
		in.Overrides, err = s.sources.Overrides.ListOverrides(gctx)
		return loadErr(err, "manual classes")
	})
	g.Go(func() (err error) {
		in.Exemptions, err = s.sources.Exemptions.ListActive(gctx, now.UTC())
		return loadErr(err, "exemptions")
	})

	if err := g.Wait(); err != nil {
		return scheduler.Input{}, err
	}
	return in, nil
}

func loadErr(err error, what string) error {
	if err == nil {
		return nil
	}
	return internalError(err, "failed to load "+what)
}

func (s *ScheduleService) acquire(ctx context.Context, held []heldLock, keys ...string) ([]heldLock, error) {
	if s.lock == nil || !s.config.LockEnabled {
		return held, nil
	}
	for _, key := range keys {
		token, err := s.lock.Acquire(ctx, key, s.config.LockTTL)
		if err != nil {
			s.release(held)
			if errors.Is(err, appErrors.ErrLockNotAcquired) {
				return nil, appErrors.Clone(appErrors.ErrGenerationInProgress, "timetable generation already running for "+lockScope(key))
			}
			return nil, internalError(err, "failed to acquire generation lock")
		}
		held = append(held, heldLock{key: key, token: token})
	}
	return held, nil
}

func (s *ScheduleService) release(held []heldLock) {
	if len(held) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, l := range held {
		if err := s.lock.Release(ctx, l.key, l.token); err != nil {
			s.logger.Warn("failed to release generation lock", zap.String("key", l.key), zap.Error(err))
		}
	}
}

func (s *ScheduleService) storeReport(ctx context.Context, resp *dto.GenerateTimetableResponse) {
	if s.cache == nil {
		return
	}
	if resp.Term == "" {
		if err := s.cache.DeleteByPattern(ctx, repository.CoveragePattern()); err != nil {
			s.logger.Warn("failed to clear generation reports", zap.Error(err))
		}
	}
	report := dto.CoverageReport{
		Term:           resp.Term,
		GeneratedCount: resp.GeneratedCount,
		Coverage:       resp.Coverage,
		Unscheduled:    resp.Unscheduled,
		GeneratedAt:    resp.GeneratedAt,
	}
	if err := s.cache.Set(ctx, repository.CoverageKey(resp.Term), report, coverageReportTTL); err != nil {
		s.logger.Warn("failed to cache generation report", zap.String("term", resp.Term), zap.Error(err))
	}
}

func (s *ScheduleService) observe(outcome string, start time.Time, generated, unscheduled int) time.Duration {
	duration := s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.ObserveGeneration(outcome, duration, generated, unscheduled)
	}
	return duration
}

func generationOutcome(err error) string {
	if errors.Is(err, appErrors.ErrGenerationInProgress) {
		return generationOutcomeLocked
	}
	return generationOutcomeFailed
}

func allocationError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrNoActiveTimeSlots),
		errors.Is(err, scheduler.ErrNoRooms),
		errors.Is(err, scheduler.ErrUnknownSubject):
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "cannot generate timetable: "+err.Error())
	}
	return internalError(err, "failed to generate timetable")
}

// termLockKeys returns the sorted lock keys of every term with a curriculum.
func termLockKeys(curricula []models.Curriculum) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, c := range curricula {
		if c.Term == "" {
			continue
		}
		if _, ok := seen[c.Term]; ok {
			continue
		}
		seen[c.Term] = struct{}{}
		keys = append(keys, repository.GenerationLockKey(c.Term))
	}
	sort.Strings(keys)
	return keys
}

func lockScope(key string) string {
	if key == repository.GenerationLockKey("") {
		return "all terms"
	}
	return "term " + strings.TrimPrefix(key, "timetable:generate:")
}

func nonNilCoverage(rows []scheduler.Coverage) []scheduler.Coverage {
	if rows == nil {
		return []scheduler.Coverage{}
	}
	return rows
}

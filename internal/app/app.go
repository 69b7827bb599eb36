// Package app wires configuration, storage clients, repositories and services
// shared by the HTTP gateway and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/internal/validation"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
)

// Repositories groups the stores backed by PostgreSQL and Redis.
type Repositories struct {
	Subjects   *repository.SubjectRepository
	Teachers   *repository.TeacherRepository
	Rooms      *repository.RoomRepository
	TimeSlots  *repository.TimeSlotRepository
	Curricula  *repository.CurriculumRepository
	Students   *repository.StudentRepository
	Sessions   *repository.SessionRepository
	Exemptions *repository.ExemptionRepository
	Locks      *repository.LockRepository
	Cache      *repository.CacheRepository
}

// Services groups the domain services.
type Services struct {
	Auth       *service.AuthService
	Subjects   *service.SubjectService
	Teachers   *service.TeacherService
	Rooms      *service.RoomService
	TimeSlots  *service.TimeSlotService
	Curricula  *service.CurriculumService
	Students   *service.StudentService
	Sessions   *service.SessionService
	Exemptions *service.ExemptionService
	Schedule   *service.ScheduleService
	Export     *service.ExportService
	Stats      *service.StatsService
	Metrics    *service.MetricsService
}

// App holds the process-wide dependencies.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	DB           *sqlx.DB
	Redis        *redis.Client
	Repositories Repositories
	Services     Services
}

// New connects to PostgreSQL and Redis and builds every service. Redis is
// optional unless generation locking is enabled.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		if cfg.Scheduler.LockEnabled {
			_ = db.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Warn("redis unavailable, generation reports will not be cached", zap.Error(err))
		rdb = nil
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Redis: rdb}
	a.Repositories = newRepositories(db, rdb, logger)
	a.Services = newServices(cfg, a.Repositories, logger)
	return a, nil
}

func newRepositories(db *sqlx.DB, rdb *redis.Client, logger *zap.Logger) Repositories {
	return Repositories{
		Subjects:   repository.NewSubjectRepository(db),
		Teachers:   repository.NewTeacherRepository(db),
		Rooms:      repository.NewRoomRepository(db),
		TimeSlots:  repository.NewTimeSlotRepository(db),
		Curricula:  repository.NewCurriculumRepository(db),
		Students:   repository.NewStudentRepository(db),
		Sessions:   repository.NewSessionRepository(db),
		Exemptions: repository.NewExemptionRepository(db),
		Locks:      repository.NewLockRepository(rdb),
		Cache:      repository.NewCacheRepository(rdb, logger),
	}
}

func newServices(cfg *config.Config, repos Repositories, logger *zap.Logger) Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validation.New()
	metrics := service.NewMetricsService()

	svcs := Services{
		Auth:       service.NewAuthService(service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			Issuer:            cfg.JWT.Issuer,
			Leeway:            cfg.JWT.Leeway,
		}),
		Subjects:   service.NewSubjectService(repos.Subjects, validate, logger),
		Teachers:   service.NewTeacherService(repos.Teachers, repos.Subjects, validate, logger),
		Rooms:      service.NewRoomService(repos.Rooms, validate, logger),
		TimeSlots:  service.NewTimeSlotService(repos.TimeSlots, validate, logger),
		Curricula:  service.NewCurriculumService(repos.Curricula, repos.Subjects, validate, logger),
		Students:   service.NewStudentService(repos.Students, repos.Curricula, validate, logger),
		Exemptions: service.NewExemptionService(repos.Exemptions, validate, logger),
		Stats:      service.NewStatsService(repos.Students, repos.Sessions),
		Metrics:    metrics,
	}
	svcs.Sessions = service.NewSessionService(repos.Sessions, service.SessionReferences{
		Subjects:  repos.Subjects,
		Teachers:  repos.Teachers,
		Rooms:     repos.Rooms,
		TimeSlots: repos.TimeSlots,
	}, validate, logger)
	svcs.Schedule = service.NewScheduleService(service.ScheduleSources{
		Subjects:   repos.Subjects,
		Teachers:   repos.Teachers,
		Rooms:      repos.Rooms,
		TimeSlots:  repos.TimeSlots,
		Curricula:  repos.Curricula,
		Students:   repos.Students,
		Overrides:  repos.Sessions,
		Exemptions: repos.Exemptions,
		Sessions:   repos.Sessions,
	},
		scheduler.NewAllocator(scheduler.AllocatorConfig{}, logger.Named("allocator")),
		repos.Locks,
		repos.Cache,
		metrics,
		service.ScheduleConfig{
			LockEnabled:    cfg.Scheduler.LockEnabled,
			LockTTL:        cfg.Scheduler.LockTTL,
			PersistDefault: cfg.Scheduler.PersistDefault,
		},
		validate,
		logger,
	)
	if cfg.Exports.Enabled {
		svcs.Export = service.NewExportService(service.ExportSources{
			Sessions:  repos.Sessions,
			Subjects:  repos.Subjects,
			Teachers:  repos.Teachers,
			Rooms:     repos.Rooms,
			TimeSlots: repos.TimeSlots,
		}, logger, nil, nil)
	}
	return svcs
}

// Close releases the storage clients.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

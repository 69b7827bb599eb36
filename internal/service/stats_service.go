package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/timetable-api/internal/dto"
)

type studentCounter interface {
	Count(ctx context.Context) (int, error)
}

type sessionCounter interface {
	Counts(ctx context.Context) (total, overrides int, err error)
}

// StatsService aggregates administrator counters.
type StatsService struct {
	students studentCounter
	sessions sessionCounter
}

// NewStatsService constructs a StatsService.
func NewStatsService(students studentCounter, sessions sessionCounter) *StatsService {
	return &StatsService{students: students, sessions: sessions}
}

// Admin returns student and class totals.
func (s *StatsService) Admin(ctx context.Context) (*dto.AdminStats, error) {
	var stats dto.AdminStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.students.Count(gctx)
		if err != nil {
			return internalError(err, "failed to count students")
		}
		stats.TotalStudents = count
		return nil
	})
	g.Go(func() error {
		total, overrides, err := s.sessions.Counts(gctx)
		if err != nil {
			return internalError(err, "failed to count classes")
		}
		stats.TotalClasses = total
		stats.OverrideClasses = overrides
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

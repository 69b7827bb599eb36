package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type studentCounterStub struct {
	count int
	err   error
}

func (s studentCounterStub) Count(context.Context) (int, error) { return s.count, s.err }

type sessionCounterStub struct {
	total, overrides int
	err              error
}

func (s sessionCounterStub) Counts(context.Context) (int, int, error) {
	return s.total, s.overrides, s.err
}

func TestStatsServiceAdmin(t *testing.T) {
	svc := NewStatsService(studentCounterStub{count: 40}, sessionCounterStub{total: 25, overrides: 3})

	stats, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, stats.TotalStudents)
	assert.Equal(t, 25, stats.TotalClasses)
	assert.Equal(t, 3, stats.OverrideClasses)
}

func TestStatsServiceAdminError(t *testing.T) {
	svc := NewStatsService(studentCounterStub{}, sessionCounterStub{err: errors.New("db down")})

	_, err := svc.Admin(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

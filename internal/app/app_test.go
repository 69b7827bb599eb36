package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/pkg/config"
)

func testConfig(exports bool) *config.Config {
	return &config.Config{
		JWT:       config.JWTConfig{Secret: "secret", Leeway: time.Second},
		Scheduler: config.SchedulerConfig{LockEnabled: true, LockTTL: time.Minute, PersistDefault: true},
		Exports:   config.ExportsConfig{Enabled: exports},
	}
}

func TestNewServicesWiresEveryService(t *testing.T) {
	svcs := newServices(testConfig(true), newRepositories(nil, nil, zap.NewNop()), zap.NewNop())

	assert.NotNil(t, svcs.Auth)
	assert.NotNil(t, svcs.Subjects)
	assert.NotNil(t, svcs.Teachers)
	assert.NotNil(t, svcs.Rooms)
	assert.NotNil(t, svcs.TimeSlots)
	assert.NotNil(t, svcs.Curricula)
	assert.NotNil(t, svcs.Students)
	assert.NotNil(t, svcs.Sessions)
	assert.NotNil(t, svcs.Exemptions)
	assert.NotNil(t, svcs.Schedule)
	assert.NotNil(t, svcs.Stats)
	assert.NotNil(t, svcs.Metrics)
	assert.NotNil(t, svcs.Export)
}

func TestNewServicesWithoutExports(t *testing.T) {
	svcs := newServices(testConfig(false), newRepositories(nil, nil, nil), nil)
	assert.Nil(t, svcs.Export)
}

func TestCloseWithoutClients(t *testing.T) {
	a := &App{}
	require.NoError(t, a.Close())
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type exemptionRepoStub struct {
	items   []*models.ConflictExemption
	updated int
}

func (r *exemptionRepoStub) ListActive(_ context.Context, now time.Time) ([]models.ConflictExemption, error) {
	var out []models.ConflictExemption
	for _, e := range r.items {
		if e.ActiveAt(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *exemptionRepoStub) FindByKey(_ context.Context, entity models.EntityType, entityID string, kind models.ConflictKind) (*models.ConflictExemption, error) {
	for _, e := range r.items {
		if e.EntityType == entity && e.EntityID == entityID && e.ConflictKind == kind {
			clone := *e
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *exemptionRepoStub) Create(_ context.Context, exemption *models.ConflictExemption) error {
	exemption.ID = "ex-new"
	clone := *exemption
	r.items = append(r.items, &clone)
	return nil
}

func (r *exemptionRepoStub) Update(_ context.Context, exemption *models.ConflictExemption) error {
	for i, e := range r.items {
		if e.ID == exemption.ID {
			clone := *exemption
			r.items[i] = &clone
		}
	}
	r.updated++
	return nil
}

var exemptionNow = time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

func newExemptionServiceForTest(repo *exemptionRepoStub) *ExemptionService {
	svc := NewExemptionService(repo, nil, nil)
	svc.now = func() time.Time { return exemptionNow }
	return svc
}

func timePtr(t time.Time) *time.Time { return &t }

func TestExemptionServiceCreate(t *testing.T) {
	repo := &exemptionRepoStub{}
	svc := newExemptionServiceForTest(repo)

	exemption, created, err := svc.Create(context.Background(), CreateExemptionRequest{
		Type:         "teacher",
		EntityID:     "T1",
		ConflictType: "schedule",
		Reason:       "covering two sections",
		ExpiresAt:    timePtr(exemptionNow.Add(24 * time.Hour)),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.EntityTeacher, exemption.EntityType)
	assert.Equal(t, models.ConflictSchedule, exemption.ConflictKind)
	assert.Len(t, repo.items, 1)
}

func TestExemptionServiceCreateValidation(t *testing.T) {
	svc := newExemptionServiceForTest(&exemptionRepoStub{})

	cases := map[string]CreateExemptionRequest{
		"bad type":     {Type: "building", EntityID: "B1", ConflictType: "schedule", Reason: "valid reason"},
		"bad conflict": {Type: "room", EntityID: "R1", ConflictType: "noise", Reason: "valid reason"},
		"short reason": {Type: "room", EntityID: "R1", ConflictType: "capacity", Reason: "no"},
		"past expiry":  {Type: "room", EntityID: "R1", ConflictType: "capacity", Reason: "valid reason", ExpiresAt: timePtr(exemptionNow.Add(-time.Minute))},
		"now expiry":   {Type: "room", EntityID: "R1", ConflictType: "capacity", Reason: "valid reason", ExpiresAt: timePtr(exemptionNow)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestExemptionServiceCreateActiveConflict(t *testing.T) {
	repo := &exemptionRepoStub{items: []*models.ConflictExemption{
		{ID: "ex-1", EntityType: models.EntityRoom, EntityID: models.AnyRoomID, ConflictKind: models.ConflictCapacity, Reason: "overflow"},
	}}
	svc := newExemptionServiceForTest(repo)

	_, _, err := svc.Create(context.Background(), CreateExemptionRequest{Type: "room", EntityID: "any", ConflictType: "capacity", Reason: "overflow again"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestExemptionServiceCreateRenewsExpired(t *testing.T) {
	repo := &exemptionRepoStub{items: []*models.ConflictExemption{
		{ID: "ex-1", EntityType: models.EntityStudent, EntityID: "ST1", ConflictKind: models.ConflictSchedule, Reason: "old", ExpiresAt: timePtr(exemptionNow.Add(-time.Hour))},
	}}
	svc := newExemptionServiceForTest(repo)

	exemption, created, err := svc.Create(context.Background(), CreateExemptionRequest{Type: "student", EntityID: "ST1", ConflictType: "schedule", Reason: "double major"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "ex-1", exemption.ID)
	assert.Nil(t, exemption.ExpiresAt)
	assert.Equal(t, 1, repo.updated)
	require.Len(t, repo.items, 1)
	assert.Equal(t, "double major", repo.items[0].Reason)
}

func TestExemptionServiceListActive(t *testing.T) {
	repo := &exemptionRepoStub{items: []*models.ConflictExemption{
		{ID: "active", ExpiresAt: timePtr(exemptionNow.Add(time.Hour))},
		{ID: "forever"},
		{ID: "expired", ExpiresAt: timePtr(exemptionNow.Add(-time.Hour))},
	}}
	svc := newExemptionServiceForTest(repo)

	exemptions, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, exemptions, 2)
	assert.Equal(t, "active", exemptions[0].ID)
	assert.Equal(t, "forever", exemptions[1].ID)
}

package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestExemptionIndexActiveOnly(t *testing.T) {
	past := fixedNow.Add(-time.Minute)
	future := fixedNow.Add(24 * time.Hour)
	idx := NewExemptionIndex([]models.ConflictExemption{
		{EntityType: models.EntityTeacher, EntityID: "T1", ConflictKind: models.ConflictSchedule, Reason: "open"},
		{EntityType: models.EntityRoom, EntityID: "R1", ConflictKind: models.ConflictCapacity, Reason: "old", ExpiresAt: &past},
		{EntityType: models.EntityStudent, EntityID: "ST1", ConflictKind: models.ConflictSchedule, Reason: "later", ExpiresAt: &future},
		{EntityType: models.EntityRoom, EntityID: "R2", ConflictKind: models.ConflictCapacity, Reason: "edge", ExpiresAt: &fixedNow},
	}, fixedNow)

	assert.Equal(t, 2, idx.Len())
	assert.True(t, idx.IsExempt(models.EntityTeacher, "T1", models.ConflictSchedule))
	assert.True(t, idx.IsExempt(models.EntityStudent, "ST1", models.ConflictSchedule))
	assert.False(t, idx.IsExempt(models.EntityRoom, "R1", models.ConflictCapacity))
	assert.False(t, idx.IsExempt(models.EntityRoom, "R2", models.ConflictCapacity), "expiry equal to now is expired")
	assert.False(t, idx.IsExempt(models.EntityTeacher, "T1", models.ConflictCapacity))
	assert.False(t, idx.IsExempt(models.EntityStudent, "T1", models.ConflictSchedule))
}

func TestExemptionIndexNoWildcards(t *testing.T) {
	idx := NewExemptionIndex([]models.ConflictExemption{
		{EntityType: models.EntityRoom, EntityID: models.AnyRoomID, ConflictKind: models.ConflictCapacity},
	}, fixedNow)

	assert.True(t, idx.IsExempt(models.EntityRoom, "any", models.ConflictCapacity))
	assert.False(t, idx.IsExempt(models.EntityRoom, "R1", models.ConflictCapacity))
	assert.False(t, idx.IsExempt("", "any", models.ConflictCapacity))
	assert.False(t, idx.IsExempt(models.EntityRoom, "", models.ConflictCapacity))
	assert.False(t, idx.IsExempt(models.EntityRoom, "any", ""))

	var nilIdx *ExemptionIndex
	assert.False(t, nilIdx.IsExempt(models.EntityRoom, "any", models.ConflictCapacity))
}

func TestExemptionIndexLastWriteWins(t *testing.T) {
	idx := NewExemptionIndex([]models.ConflictExemption{
		{EntityType: models.EntityTeacher, EntityID: "T1", ConflictKind: models.ConflictSchedule, Reason: "first"},
		{EntityType: models.EntityTeacher, EntityID: "T1", ConflictKind: models.ConflictSchedule, Reason: "second"},
	}, fixedNow)

	reason, ok := idx.Reason(models.EntityTeacher, "T1", models.ConflictSchedule)
	assert.True(t, ok)
	assert.Equal(t, "second", reason)
	assert.Equal(t, 1, idx.Len())
}

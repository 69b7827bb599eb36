package scheduler

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestGridReserveIsIdempotent(t *testing.T) {
	g := NewGrid()
	assert.False(t, g.Occupied(models.EntityRoom, "R1", models.Monday, "TS1"))

	g.Reserve(models.EntityRoom, "R1", models.Monday, "TS1")
	g.Reserve(models.EntityRoom, "R1", models.Monday, "TS1")

	assert.True(t, g.Occupied(models.EntityRoom, "R1", models.Monday, "TS1"))
	assert.Len(t, g.rooms, 1)
	assert.False(t, g.Occupied(models.EntityTeacher, "R1", models.Monday, "TS1"), "classes are independent")
	assert.False(t, g.Occupied(models.EntityRoom, "R1", models.Tuesday, "TS1"))
}

func TestGridIsFreeHonoursExemption(t *testing.T) {
	g := NewGrid()
	g.Reserve(models.EntityTeacher, "T1", models.Monday, "TS1")
	idx := NewExemptionIndex([]models.ConflictExemption{
		{EntityType: models.EntityTeacher, EntityID: "T1", ConflictKind: models.ConflictSchedule},
	}, fixedNow)

	assert.False(t, g.IsFree(models.EntityTeacher, "T1", models.Monday, "TS1", nil, models.ConflictSchedule))
	assert.True(t, g.IsFree(models.EntityTeacher, "T1", models.Monday, "TS1", idx, models.ConflictSchedule))
	assert.False(t, g.IsFree(models.EntityTeacher, "T1", models.Monday, "TS1", idx, models.ConflictCapacity))
	assert.True(t, g.IsFree(models.EntityTeacher, "T2", models.Monday, "TS1", nil, models.ConflictSchedule))
}

func TestGridSeedMarksStudentsOfEveryCurriculum(t *testing.T) {
	curricula := []models.Curriculum{
		{ID: "C1", SubjectIDs: pq.StringArray{"S1"}},
		{ID: "C2", SubjectIDs: pq.StringArray{"S1", "S2"}},
		{ID: "C3", SubjectIDs: pq.StringArray{"S3"}},
	}
	students := []models.Student{
		{ID: "ST1", CurriculumID: "C1"},
		{ID: "ST2", CurriculumID: "C2"},
		{ID: "ST3", CurriculumID: "C3"},
	}
	g := NewGrid()
	g.Seed([]models.Session{{TeacherID: "T1", RoomID: "R1", SubjectID: "S1", Day: models.Wednesday, TimeSlotID: "TS2", IsOverride: true}}, NewCohorts(curricula, students))

	assert.True(t, g.Occupied(models.EntityTeacher, "T1", models.Wednesday, "TS2"))
	assert.True(t, g.Occupied(models.EntityRoom, "R1", models.Wednesday, "TS2"))
	assert.True(t, g.Occupied(models.EntityStudent, "ST1", models.Wednesday, "TS2"))
	assert.True(t, g.Occupied(models.EntityStudent, "ST2", models.Wednesday, "TS2"))
	assert.False(t, g.Occupied(models.EntityStudent, "ST3", models.Wednesday, "TS2"))
}

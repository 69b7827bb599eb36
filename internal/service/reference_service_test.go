package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type roomRepoStub struct {
	items map[string]models.Room
}

func (r *roomRepoStub) List(context.Context, int, int) ([]models.Room, int, error) {
	var out []models.Room
	for _, room := range r.items {
		out = append(out, room)
	}
	return out, len(out), nil
}

func (r *roomRepoStub) FindByID(_ context.Context, id string) (*models.Room, error) {
	room, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

func (r *roomRepoStub) ExistsByName(_ context.Context, name string) (bool, error) {
	for _, room := range r.items {
		if room.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *roomRepoStub) Create(_ context.Context, room *models.Room) error {
	room.ID = "room-" + room.Name
	r.items[room.ID] = *room
	return nil
}

func TestRoomServiceCreate(t *testing.T) {
	repo := &roomRepoStub{items: map[string]models.Room{}}
	svc := NewRoomService(repo, nil, nil)

	room, err := svc.Create(context.Background(), CreateRoomRequest{Name: " Lab1 ", Capacity: 30})
	require.NoError(t, err)
	assert.Equal(t, "Lab1", room.Name)

	_, err = svc.Create(context.Background(), CreateRoomRequest{Name: "Lab1", Capacity: 30})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(context.Background(), CreateRoomRequest{Name: "Hall", Capacity: 1001})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), CreateRoomRequest{Name: "Closet", Capacity: 0})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestRoomServiceListAndGet(t *testing.T) {
	svc := NewRoomService(&roomRepoStub{items: map[string]models.Room{"R1": {ID: "R1", Name: "Lab1"}}}, nil, nil)

	rooms, pagination, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Equal(t, 1, pagination.Page)

	_, err = svc.Get(context.Background(), "R2")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

type timeSlotRepoStub struct {
	items   map[string]models.TimeSlot
	updated []models.TimeSlot
}

func (r *timeSlotRepoStub) List(_ context.Context, activeOnly bool) ([]models.TimeSlot, error) {
	var out []models.TimeSlot
	for _, ts := range r.items {
		if activeOnly && !ts.IsActive {
			continue
		}
		out = append(out, ts)
	}
	return out, nil
}

func (r *timeSlotRepoStub) FindByID(_ context.Context, id string) (*models.TimeSlot, error) {
	ts, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &ts, nil
}

func (r *timeSlotRepoStub) Create(_ context.Context, slot *models.TimeSlot) error {
	slot.ID = "slot-" + slot.StartTime
	r.items[slot.ID] = *slot
	return nil
}

func (r *timeSlotRepoStub) Update(_ context.Context, slot *models.TimeSlot) error {
	r.items[slot.ID] = *slot
	r.updated = append(r.updated, *slot)
	return nil
}

func TestTimeSlotServiceCreateDefaultsActive(t *testing.T) {
	repo := &timeSlotRepoStub{items: map[string]models.TimeSlot{}}
	svc := NewTimeSlotService(repo, nil, nil)

	slot, err := svc.Create(context.Background(), TimeSlotRequest{Label: "P1", StartTime: "08:00", EndTime: "08:45"})
	require.NoError(t, err)
	assert.True(t, slot.IsActive)

	inactive := false
	slot, err = svc.Create(context.Background(), TimeSlotRequest{Label: "P2", StartTime: "09:00", EndTime: "09:45", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, slot.IsActive)
}

func TestTimeSlotServiceCreateValidation(t *testing.T) {
	svc := NewTimeSlotService(&timeSlotRepoStub{items: map[string]models.TimeSlot{}}, nil, nil)

	cases := map[string]TimeSlotRequest{
		"end before start":  {Label: "P1", StartTime: "09:00", EndTime: "08:00"},
		"end equals start":  {Label: "P1", StartTime: "09:00", EndTime: "09:00"},
		"bad clock":         {Label: "P1", StartTime: "9:00", EndTime: "10:00"},
		"hour out of range": {Label: "P1", StartTime: "08:00", EndTime: "24:00"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestTimeSlotServiceUpdateKeepsActiveFlag(t *testing.T) {
	repo := &timeSlotRepoStub{items: map[string]models.TimeSlot{
		"TS1": {ID: "TS1", Label: "P1", StartTime: "08:00", EndTime: "08:45", IsActive: false},
	}}
	svc := NewTimeSlotService(repo, nil, nil)

	slot, err := svc.Update(context.Background(), "TS1", TimeSlotRequest{Label: "Period 1", StartTime: "08:00", EndTime: "08:50"})
	require.NoError(t, err)
	assert.False(t, slot.IsActive)
	assert.Equal(t, "08:50", slot.EndTime)

	active := true
	slot, err = svc.Update(context.Background(), "TS1", TimeSlotRequest{Label: "Period 1", StartTime: "08:00", EndTime: "08:50", IsActive: &active})
	require.NoError(t, err)
	assert.True(t, slot.IsActive)
	assert.Len(t, repo.updated, 2)

	_, err = svc.Update(context.Background(), "TS9", TimeSlotRequest{Label: "P", StartTime: "08:00", EndTime: "08:50"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

type curriculumRepoStub struct {
	items map[string]models.Curriculum
	terms []string
}

func (r *curriculumRepoStub) List(_ context.Context, term string) ([]models.Curriculum, error) {
	r.terms = append(r.terms, term)
	var out []models.Curriculum
	for _, c := range r.items {
		if term == "" || c.Term == term {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *curriculumRepoStub) FindByID(_ context.Context, id string) (*models.Curriculum, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (r *curriculumRepoStub) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, c := range r.items {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *curriculumRepoStub) Create(_ context.Context, curriculum *models.Curriculum) error {
	curriculum.ID = "cur-" + curriculum.Code
	r.items[curriculum.ID] = *curriculum
	return nil
}

func TestCurriculumServiceCreateKeepsSubjectOrder(t *testing.T) {
	repo := &curriculumRepoStub{items: map[string]models.Curriculum{}}
	subjects := newSubjectRepoStub(models.Subject{ID: "S1"}, models.Subject{ID: "S2"}, models.Subject{ID: "S3"})
	svc := NewCurriculumService(repo, subjects, nil, nil)

	curriculum, err := svc.Create(context.Background(), CreateCurriculumRequest{
		Code:       "CS-1",
		Name:       "Computer Science",
		Term:       "Fall2024",
		SubjectIDs: []string{"S3", "S1", "S2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"S3", "S1", "S2"}, []string(curriculum.SubjectIDs))
}

func TestCurriculumServiceCreateRejects(t *testing.T) {
	repo := &curriculumRepoStub{items: map[string]models.Curriculum{"cur-CS-1": {ID: "cur-CS-1", Code: "CS-1"}}}
	svc := NewCurriculumService(repo, newSubjectRepoStub(models.Subject{ID: "S1"}), nil, nil)

	_, err := svc.Create(context.Background(), CreateCurriculumRequest{Code: "CS-1", Name: "CS", Term: "Fall2024", SubjectIDs: []string{"S1"}})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(context.Background(), CreateCurriculumRequest{Code: "CS-2", Name: "CS", Term: "Fall2024", SubjectIDs: []string{"S1", "S7"}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), CreateCurriculumRequest{Code: "CS-3", Name: "CS", Term: "Fall2024"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), CreateCurriculumRequest{Code: "CS-4", Name: "CS", Term: "Academic-Year-2024-Fall", SubjectIDs: []string{"S1"}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCurriculumServiceListTrimsTerm(t *testing.T) {
	repo := &curriculumRepoStub{items: map[string]models.Curriculum{
		"C1": {ID: "C1", Term: "Fall2024"},
		"C2": {ID: "C2", Term: "Spring2025"},
	}}
	svc := NewCurriculumService(repo, newSubjectRepoStub(), nil, nil)

	curricula, err := svc.List(context.Background(), " Fall2024 ")
	require.NoError(t, err)
	require.Len(t, curricula, 1)
	assert.Equal(t, []string{"Fall2024"}, repo.terms)
}

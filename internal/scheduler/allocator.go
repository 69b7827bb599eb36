package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Prerequisite failures. A run that hits one of these aborts instead of
// returning an empty schedule.
var (
	ErrNoActiveTimeSlots = errors.New("no active time slots configured")
	ErrNoRooms           = errors.New("no rooms configured")
	ErrUnknownSubject    = errors.New("curriculum references unknown subject")
)

// Input is everything one allocation run reads.
type Input struct {
	// Term restricts curricula and overrides. Empty means every term.
	Term       string
	Subjects   []models.Subject
	Teachers   []models.Teacher
	Rooms      []models.Room
	TimeSlots  []models.TimeSlot
	Curricula  []models.Curriculum
	Students   []models.Student
	Overrides  []models.Session
	Exemptions []models.ConflictExemption
	Now        time.Time
}

// Coverage compares required and placed sessions for one curriculum subject.
type Coverage struct {
	CurriculumID string `json:"curriculum_id"`
	SubjectID    string `json:"subject_id"`
	Needed       int    `json:"needed"`
	Assigned     int    `json:"assigned"`
}

// Complete reports whether every required session was placed.
func (c Coverage) Complete() bool {
	return c.Assigned >= c.Needed
}

// Result is the outcome of a run.
type Result struct {
	// Sessions holds the override sessions followed by the generated ones.
	Sessions  []models.Session
	Generated []models.Session
	Overrides []models.Session
	Coverage  []Coverage
}

// Unscheduled returns the coverage rows that fell short.
func (r *Result) Unscheduled() []Coverage {
	var short []Coverage
	for _, c := range r.Coverage {
		if !c.Complete() {
			short = append(short, c)
		}
	}
	return short
}

// AllocatorConfig tunes the allocator.
type AllocatorConfig struct {
	// NewID generates session ids. Defaults to uuid.NewString.
	NewID func() string
}

// Allocator runs the greedy first-fit assignment.
type Allocator struct {
	newID  func() string
	logger *zap.Logger
}

// NewAllocator constructs an allocator.
func NewAllocator(cfg AllocatorConfig, logger *zap.Logger) *Allocator {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{newID: cfg.NewID, logger: logger}
}

type run struct {
	grid    *Grid
	index   *ExemptionIndex
	cohorts *Cohorts
	rooms   []models.Room
	slots   []models.TimeSlot
}

// Allocate seeds the grid from the overrides and places sessions for every
// subject of every matching curriculum. Falling short on a subject is reported
// through Coverage, never as an error.
func (a *Allocator) Allocate(in Input) (*Result, error) {
	slots := activeSlots(in.TimeSlots)
	if len(slots) == 0 {
		return nil, ErrNoActiveTimeSlots
	}
	if len(in.Rooms) == 0 {
		return nil, ErrNoRooms
	}

	subjects := make(map[string]models.Subject, len(in.Subjects))
	for _, s := range in.Subjects {
		subjects[s.ID] = s
	}
	curricula := filterCurricula(in.Curricula, in.Term)
	for _, c := range curricula {
		for _, id := range c.SubjectIDs {
			if _, ok := subjects[id]; !ok {
				return nil, fmt.Errorf("%w: curriculum %s subject %s", ErrUnknownSubject, c.ID, id)
			}
		}
	}

	overrides := filterOverrides(in.Overrides, in.Term)
	cohorts := NewCohorts(curricula, in.Students)
	r := &run{
		grid:    NewGrid(),
		index:   NewExemptionIndex(in.Exemptions, in.Now),
		cohorts: cohorts,
		rooms:   in.Rooms,
		slots:   slots,
	}
	r.grid.Seed(overrides, cohorts)

	result := &Result{Overrides: overrides}
	for _, cur := range curricula {
		students := cohorts.Members(cur.ID)
		for _, subjectID := range cur.SubjectIDs {
			needed := subjects[subjectID].SessionsPerWeek()
			assigned := 0
			for _, teacher := range in.Teachers {
				if assigned >= needed {
					break
				}
				if !teacher.Teaches(subjectID) {
					continue
				}
				session, ok := a.place(r, cur, subjectID, teacher.ID, students)
				if !ok {
					continue
				}
				result.Generated = append(result.Generated, session)
				assigned++
			}
			if assigned < needed {
				a.logger.Debug("subject under-provisioned",
					zap.String("curriculum_id", cur.ID),
					zap.String("subject_id", subjectID),
					zap.Int("needed", needed),
					zap.Int("assigned", assigned),
				)
			}
			result.Coverage = append(result.Coverage, Coverage{
				CurriculumID: cur.ID,
				SubjectID:    subjectID,
				Needed:       needed,
				Assigned:     assigned,
			})
		}
	}

	result.Sessions = make([]models.Session, 0, len(overrides)+len(result.Generated))
	result.Sessions = append(result.Sessions, overrides...)
	result.Sessions = append(result.Sessions, result.Generated...)
	return result, nil
}

// place commits at most one session for the teacher: the first free
// (day, slot) wins and the scan stops there.
func (a *Allocator) place(r *run, cur models.Curriculum, subjectID, teacherID string, students []string) (models.Session, bool) {
	for _, day := range models.Weekdays {
		for _, slot := range r.slots {
			if !r.grid.IsFree(models.EntityTeacher, teacherID, day, slot.ID, r.index, models.ConflictSchedule) {
				continue
			}
			room, ok := r.pickRoom(day, slot.ID)
			if !ok {
				continue
			}
			if !r.studentsFree(students, day, slot.ID) {
				continue
			}

			session := models.Session{
				ID:         a.newID(),
				SubjectID:  subjectID,
				TeacherID:  teacherID,
				RoomID:     room.ID,
				TimeSlotID: slot.ID,
				Day:        day,
				Term:       cur.Term,
				IsOverride: false,
			}
			r.grid.Reserve(models.EntityTeacher, teacherID, day, slot.ID)
			r.grid.Reserve(models.EntityRoom, room.ID, day, slot.ID)
			for _, id := range students {
				r.grid.Reserve(models.EntityStudent, id, day, slot.ID)
			}
			return session, true
		}
	}
	return models.Session{}, false
}

// pickRoom returns the first free room. When every room is taken a capacity
// exemption on the "any" room id falls back to the first room.
func (r *run) pickRoom(day models.Day, slotID string) (models.Room, bool) {
	for _, room := range r.rooms {
		if r.grid.IsFree(models.EntityRoom, room.ID, day, slotID, r.index, models.ConflictSchedule) {
			return room, true
		}
	}
	if r.index.IsExempt(models.EntityRoom, models.AnyRoomID, models.ConflictCapacity) {
		return r.rooms[0], true
	}
	return models.Room{}, false
}

func (r *run) studentsFree(students []string, day models.Day, slotID string) bool {
	for _, id := range students {
		if !r.grid.IsFree(models.EntityStudent, id, day, slotID, r.index, models.ConflictSchedule) {
			return false
		}
	}
	return true
}

func activeSlots(slots []models.TimeSlot) []models.TimeSlot {
	active := make([]models.TimeSlot, 0, len(slots))
	for _, ts := range slots {
		if ts.IsActive {
			active = append(active, ts)
		}
	}
	return active
}

func filterCurricula(curricula []models.Curriculum, term string) []models.Curriculum {
	if term == "" {
		return curricula
	}
	result := make([]models.Curriculum, 0, len(curricula))
	for _, c := range curricula {
		if c.Term == term {
			result = append(result, c)
		}
	}
	return result
}

func filterOverrides(sessions []models.Session, term string) []models.Session {
	result := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.IsOverride {
			continue
		}
		if term != "" && s.Term != term {
			continue
		}
		result = append(result, s)
	}
	return result
}

package scheduler

import "github.com/noah-isme/timetable-api/internal/models"

type cell struct {
	id   string
	day  models.Day
	slot string
}

// Grid tracks occupied (entity, day, slot) cells for teachers, rooms and
// students. Presence in a map means occupied.
type Grid struct {
	teachers map[cell]struct{}
	rooms    map[cell]struct{}
	students map[cell]struct{}
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{
		teachers: make(map[cell]struct{}),
		rooms:    make(map[cell]struct{}),
		students: make(map[cell]struct{}),
	}
}

func (g *Grid) cells(class models.EntityType) map[cell]struct{} {
	switch class {
	case models.EntityTeacher:
		return g.teachers
	case models.EntityRoom:
		return g.rooms
	case models.EntityStudent:
		return g.students
	}
	return nil
}

// Seed marks the teacher, room and affected students of every override
// session as occupied. Students are resolved through every curriculum that
// requires the session's subject.
func (g *Grid) Seed(overrides []models.Session, cohorts *Cohorts) {
	for _, s := range overrides {
		g.Reserve(models.EntityTeacher, s.TeacherID, s.Day, s.TimeSlotID)
		g.Reserve(models.EntityRoom, s.RoomID, s.Day, s.TimeSlotID)
		if cohorts == nil {
			continue
		}
		for _, studentID := range cohorts.StudentsTaking(s.SubjectID) {
			g.Reserve(models.EntityStudent, studentID, s.Day, s.TimeSlotID)
		}
	}
}

// Occupied reports whether the cell has been reserved.
func (g *Grid) Occupied(class models.EntityType, id string, day models.Day, slot string) bool {
	_, ok := g.cells(class)[cell{id: id, day: day, slot: slot}]
	return ok
}

// IsFree reports whether the cell is unoccupied or the entity holds an active
// exemption of the given kind.
func (g *Grid) IsFree(class models.EntityType, id string, day models.Day, slot string, idx *ExemptionIndex, kind models.ConflictKind) bool {
	if !g.Occupied(class, id, day, slot) {
		return true
	}
	return idx.IsExempt(class, id, kind)
}

// Reserve marks the cell occupied. Reserving an occupied cell is a no-op.
func (g *Grid) Reserve(class models.EntityType, id string, day models.Day, slot string) {
	cells := g.cells(class)
	if cells == nil {
		return
	}
	cells[cell{id: id, day: day, slot: slot}] = struct{}{}
}

package models

import "time"

// Day is the three-letter day-of-week code stored on sessions.
type Day string

const (
	Monday    Day = "Mon"
	Tuesday   Day = "Tue"
	Wednesday Day = "Wed"
	Thursday  Day = "Thu"
	Friday    Day = "Fri"
	Saturday  Day = "Sat"
	Sunday    Day = "Sun"
)

// Weekdays is the fixed order the allocator scans. Weekends are never auto-generated.
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

// AllDays lists every valid day code in calendar order.
var AllDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index returns the calendar position of the day (Mon=0) or -1 when unknown.
func (d Day) Index() int {
	for i, day := range AllDays {
		if day == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of the seven day codes.
func (d Day) Valid() bool {
	return d.Index() >= 0
}

// Session is one scheduled class occurrence ("class" in the API).
type Session struct {
	ID         string    `db:"id" json:"id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	TimeSlotID string    `db:"time_slot_id" json:"time_slot_id"`
	Day        Day       `db:"day" json:"day"`
	Term       string    `db:"term" json:"term"`
	IsOverride bool      `db:"is_override" json:"is_override"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	Term         string
	OverrideOnly bool
}

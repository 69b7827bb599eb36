package models

import "time"

// Subject represents a course a curriculum can require.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Units       int       `db:"units" json:"units"`
	WeeklyHours int       `db:"weekly_hours" json:"weekly_hours"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SessionsPerWeek returns how many sessions the allocator must place for the subject.
func (s Subject) SessionsPerWeek() int {
	if s.Units <= 0 {
		return 1
	}
	n := s.WeeklyHours / s.Units
	if n < 1 {
		return 1
	}
	return n
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search   string
	Page     int
	PageSize int
}

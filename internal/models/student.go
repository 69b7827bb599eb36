package models

import "time"

// Student belongs to exactly one curriculum.
type Student struct {
	ID              string    `db:"id" json:"id"`
	CardID          string    `db:"card_id" json:"card_id"`
	Name            string    `db:"name" json:"name"`
	CurriculumID    string    `db:"curriculum_id" json:"curriculum_id"`
	EnrollmentCount int       `db:"enrollment_count" json:"enrollment_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	CurriculumID string
	Search       string
	Page         int
	PageSize     int
}

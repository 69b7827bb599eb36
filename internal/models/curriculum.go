package models

import (
	"time"

	"github.com/lib/pq"
)

// Curriculum is the ordered list of subjects a cohort takes in a term.
type Curriculum struct {
	ID         string         `db:"id" json:"id"`
	Code       string         `db:"code" json:"code"`
	Name       string         `db:"name" json:"name"`
	Term       string         `db:"term" json:"term"`
	SubjectIDs pq.StringArray `db:"subject_ids" json:"subject_ids"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Contains reports whether the curriculum requires the subject.
func (c Curriculum) Contains(subjectID string) bool {
	for _, id := range c.SubjectIDs {
		if id == subjectID {
			return true
		}
	}
	return false
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher is a staff member qualified to teach a set of subjects.
type Teacher struct {
	ID                  string         `db:"id" json:"id"`
	Code                string         `db:"code" json:"code"`
	Name                string         `db:"name" json:"name"`
	QualifiedSubjectIDs pq.StringArray `db:"qualified_subject_ids" json:"qualified_subject_ids"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// Teaches reports whether the teacher is qualified for the subject.
func (t Teacher) Teaches(subjectID string) bool {
	for _, id := range t.QualifiedSubjectIDs {
		if id == subjectID {
			return true
		}
	}
	return false
}

// TeacherFilter describes filters for listing teachers.
type TeacherFilter struct {
	SubjectID string
	Search    string
	Page      int
	PageSize  int
}

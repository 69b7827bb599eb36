package scheduler

import "github.com/noah-isme/timetable-api/internal/models"

// Cohorts resolves curricula to their enrolled students.
type Cohorts struct {
	curricula []models.Curriculum
	members   map[string][]string
}

// NewCohorts groups students by curriculum, preserving input order.
func NewCohorts(curricula []models.Curriculum, students []models.Student) *Cohorts {
	members := make(map[string][]string, len(curricula))
	for _, st := range students {
		members[st.CurriculumID] = append(members[st.CurriculumID], st.ID)
	}
	return &Cohorts{curricula: curricula, members: members}
}

// Members returns the students enrolled in the curriculum.
func (c *Cohorts) Members(curriculumID string) []string {
	return c.members[curriculumID]
}

// StudentsTaking returns every student of every curriculum that requires the
// subject, without duplicates.
func (c *Cohorts) StudentsTaking(subjectID string) []string {
	var result []string
	seen := make(map[string]bool)
	for _, cur := range c.curricula {
		if !cur.Contains(subjectID) {
			continue
		}
		for _, id := range c.members[cur.ID] {
			if seen[id] {
				continue
			}
			seen[id] = true
			result = append(result, id)
		}
	}
	return result
}

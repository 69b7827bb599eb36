package dto

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
)

// GenerateTimetableRequest triggers a generation run. An empty term covers
// every term. A nil DryRun falls back to the configured persistence default.
type GenerateTimetableRequest struct {
	Term   string `json:"term" validate:"omitempty,max=20"`
	DryRun *bool  `json:"dry_run"`
}

// GenerateTimetableResponse is the outcome of a generation run.
type GenerateTimetableResponse struct {
	Term           string               `json:"term,omitempty"`
	DryRun         bool                 `json:"dry_run"`
	Classes        []models.Session     `json:"classes"`
	GeneratedCount int                  `json:"generated_count"`
	RemovedCount   int64                `json:"removed_count"`
	Coverage       []scheduler.Coverage `json:"coverage"`
	Unscheduled    []scheduler.Coverage `json:"unscheduled"`
	GeneratedAt    time.Time            `json:"generated_at"`
}

// CoverageReport is the cached summary of the last persisted run of a term.
type CoverageReport struct {
	Term           string               `json:"term,omitempty"`
	GeneratedCount int                  `json:"generated_count"`
	Coverage       []scheduler.Coverage `json:"coverage"`
	Unscheduled    []scheduler.Coverage `json:"unscheduled"`
	GeneratedAt    time.Time            `json:"generated_at"`
}

// AdminStats summarises stored data for administrators.
type AdminStats struct {
	TotalStudents   int `json:"total_students"`
	TotalClasses    int `json:"total_classes"`
	OverrideClasses int `json:"override_classes"`
}

package scheduler

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

type exemptionKey struct {
	entity models.EntityType
	id     string
	kind   models.ConflictKind
}

// ExemptionIndex answers "is this entity exempt from this conflict kind" in
// constant time. It is immutable once built.
type ExemptionIndex struct {
	entries map[exemptionKey]string
}

// NewExemptionIndex keeps every exemption active at now. Colliding keys are
// resolved last-write-wins.
func NewExemptionIndex(exemptions []models.ConflictExemption, now time.Time) *ExemptionIndex {
	entries := make(map[exemptionKey]string, len(exemptions))
	for _, e := range exemptions {
		if !e.ActiveAt(now) {
			continue
		}
		entries[exemptionKey{entity: e.EntityType, id: e.EntityID, kind: e.ConflictKind}] = e.Reason
	}
	return &ExemptionIndex{entries: entries}
}

// IsExempt reports whether an active exemption exists for the exact key.
// There is no wildcard matching; empty components never match.
func (x *ExemptionIndex) IsExempt(entity models.EntityType, id string, kind models.ConflictKind) bool {
	_, ok := x.Reason(entity, id, kind)
	return ok
}

// Reason returns the free-text reason recorded for the exemption.
func (x *ExemptionIndex) Reason(entity models.EntityType, id string, kind models.ConflictKind) (string, bool) {
	if x == nil || entity == "" || id == "" || kind == "" {
		return "", false
	}
	reason, ok := x.entries[exemptionKey{entity: entity, id: id, kind: kind}]
	return reason, ok
}

// Len returns the number of active exemptions held.
func (x *ExemptionIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.entries)
}

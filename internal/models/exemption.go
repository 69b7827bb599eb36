package models

import "time"

// EntityType names the kind of entity an exemption applies to.
type EntityType string

const (
	EntityStudent EntityType = "student"
	EntityTeacher EntityType = "teacher"
	EntityRoom    EntityType = "room"
)

// Valid reports whether the entity type belongs to the closed set.
func (t EntityType) Valid() bool {
	switch t {
	case EntityStudent, EntityTeacher, EntityRoom:
		return true
	}
	return false
}

// ConflictKind names the check an exemption waives.
type ConflictKind string

const (
	ConflictSchedule ConflictKind = "schedule"
	ConflictCapacity ConflictKind = "capacity"
)

// Valid reports whether the conflict kind belongs to the closed set.
func (k ConflictKind) Valid() bool {
	return k == ConflictSchedule || k == ConflictCapacity
}

// AnyRoomID is the sentinel entity id a room capacity exemption uses to allow
// falling back to an occupied room.
const AnyRoomID = "any"

// ConflictExemption waives one conflict check for one entity until ExpiresAt.
type ConflictExemption struct {
	ID           string       `db:"id" json:"id"`
	EntityType   EntityType   `db:"entity_type" json:"type"`
	EntityID     string       `db:"entity_id" json:"entity_id"`
	ConflictKind ConflictKind `db:"conflict_kind" json:"conflict_type"`
	Reason       string       `db:"reason" json:"reason"`
	ExpiresAt    *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// ActiveAt reports whether the exemption applies at the given instant.
func (e ConflictExemption) ActiveAt(now time.Time) bool {
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

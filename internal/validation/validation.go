// Package validation registers the typed predicates request payloads rely on.
package validation

import (
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/timetable-api/internal/models"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// New returns a validator with the timetable predicates registered:
//
//	clock         HH:MM, 24h, zero padded
//	clockafter=F  clock strictly later than sibling field F
//	weekday       Mon..Sun
//	entitytype    student|teacher|room
//	conflictkind  schedule|capacity
func New() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

// Register adds the predicates to an existing validator.
func Register(v *validator.Validate) {
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return IsClock(fl.Field().String())
	})
	_ = v.RegisterValidation("clockafter", clockAfter)
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return models.Day(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("entitytype", func(fl validator.FieldLevel) bool {
		return models.EntityType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("conflictkind", func(fl validator.FieldLevel) bool {
		return models.ConflictKind(fl.Field().String()).Valid()
	})
}

// IsClock reports whether raw is a HH:MM clock value.
func IsClock(raw string) bool {
	return clockPattern.MatchString(raw)
}

// Zero padded clocks order lexicographically.
func clockAfter(fl validator.FieldLevel) bool {
	end := fl.Field().String()
	parent := fl.Parent()
	if parent.Kind() == reflect.Ptr {
		parent = parent.Elem()
	}
	other := parent.FieldByName(fl.Param())
	if !other.IsValid() || other.Kind() != reflect.String {
		return false
	}
	start := other.String()
	if !IsClock(start) || !IsClock(end) {
		return false
	}
	return end > start
}

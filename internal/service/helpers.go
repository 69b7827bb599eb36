package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/timetable-api/internal/validation"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

func defaultValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		return validation.New()
	}
	return validate
}

func invalidPayload(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// lookupError maps a FindByID failure onto NOT_FOUND or INTERNAL_ERROR.
func lookupError(err error, notFound, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return internalError(err, failed)
}

// missingIDs returns requested ids absent from found, preserving request order.
func missingIDs(requested, found []string) []string {
	present := make(map[string]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []string
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func unknownReferences(kind string, ids []string) error {
	return appErrors.Clone(appErrors.ErrValidation, "unknown "+kind+": "+strings.Join(ids, ", "))
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return page, size
}

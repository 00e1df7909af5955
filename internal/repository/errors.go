package repository

import (
	"errors"
	"strings"

	"bulletin/internal/models"

	"gorm.io/gorm"
)

// isDuplicate reports a unique-constraint violation. TranslateError covers
// the postgres and sqlite drivers; the string checks catch connections opened
// without it.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// translate maps a gorm error onto the application error taxonomy.
func translate(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewStoreError(err)
}

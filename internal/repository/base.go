// Package repository provides the gorm-backed data access layer.
package repository

import (
	"errors"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// translate maps gorm errors onto the application error types.
func translate(err error, resource string, key interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, key)
	}
	return models.NewInternalError(err)
}

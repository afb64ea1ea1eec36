// Package service contains the business logic layer of liber.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership and visibility
//	Repository (Data layer)  → reads/writes the database
//
// Services take repository interfaces, never *sqlite.DB, so tests inject
// in-memory fakes. They return *apperror.AppError values and know nothing
// about HTTP.
package service

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/model"
	"github.com/chankruze/liber/internal/repository"
)

// validate runs an input's ozzo-validation rules and converts a failure into
// an apperror.ErrValidation carrying the first offending field.
func validate(v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return apperror.ValidationFailed(keys[0], err.Error())
	}
	return apperror.ValidationFailed("", err.Error())
}

// assertOwner is the single ownership gate for every mutating operation.
func assertOwner[T model.Owned](record T, callerID, resource string) error {
	if callerID == "" || record.Owner() != callerID {
		return apperror.Unauthorized(fmt.Sprintf("you are not allowed to modify this %s", resource))
	}
	return nil
}

// createError maps a repository insert failure.
func createError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotAcknowledged) {
		return apperror.Internal(fmt.Sprintf("failed to create %s", resource))
	}
	if errors.Is(err, apperror.ErrConflict) {
		return err
	}
	return fmt.Errorf("creating %s: %w", resource, err)
}

// writeError maps a repository update/delete failure.
func writeError(op, resource string, err error) error {
	if errors.Is(err, apperror.ErrConflict) {
		return err
	}
	return apperror.Unprocessable(fmt.Sprintf("failed to %s %s", op, resource), err)
}

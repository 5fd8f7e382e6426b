package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDossierNotFound    = errors.New("dossier not found")
	ErrInvalidStatus      = errors.New("invalid dossier status")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrParseFailure       = errors.New("snapshot is not a valid dossier collection")
	ErrImportRejected     = errors.New("import rejected")
)

// ValidationError lists the intake fields that failed the required check.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: required fields missing: %s", ErrValidation, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

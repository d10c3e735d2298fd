package service

import (
	"fmt"
	"strings"

	apperrors "github.com/yourusername/brainiac-api/internal/pkg/errors"
)

// ValidationError перечисляет отсутствующие поля сабмита.
// Разворачивается в apperrors.ErrValidation для проверки через errors.Is.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidation
}

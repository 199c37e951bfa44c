package curriculum

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks author input that is missing or inconsistent.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an id that no longer resolves.
	ErrNotFound = errors.New("not found")
	// ErrInvariant marks data that violates a structural invariant.
	ErrInvariant = errors.New("structural invariant violated")
	// ErrConflict marks a write based on a stale course version.
	ErrConflict = errors.New("stale course version")
)

// FieldError describes one failing field of a draft.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every failing field so a form can show them all at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Add records a failing field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field has been recorded.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Err returns e when any field failed, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Entity kinds used in NotFoundError.
const (
	KindCourse   = "course"
	KindTopic    = "topic"
	KindQuestion = "question"
	KindImage    = "image"
	KindSession  = "session"
)

// NotFoundError reports an id that does not resolve.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// InvariantError reports data that must never exist if the rest of the model is respected.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvariant, e.Reason)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

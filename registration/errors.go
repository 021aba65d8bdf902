package registration

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials signals wrong email or password at login.
	ErrInvalidCredentials = errors.New("registration: invalid credentials")
)

// ValidationError aggregates per-field violations. Multi-field checks never
// fail fast: every violated field is collected so a UI can show the full
// picture in one pass.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates an empty aggregate.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a violation against a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no violations were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// ErrOrNil returns the aggregate as an error, or nil if nothing was added.
func (e *ValidationError) ErrOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("registration: validation failed for %s", strings.Join(fields, ", "))
}

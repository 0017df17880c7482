package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrVersionMismatch is returned by stores when a compare-and-swap write loses a race.
	ErrVersionMismatch = errors.New("timetable version mismatch")
	// ErrLockTimeout is returned when a slot lock could not be taken in time.
	ErrLockTimeout = errors.New("slot lock timeout")
)

// FieldError is used to indicate an error with a specific field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is a caller-correctable input error. Nothing is persisted when it is returned.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

// NewFieldError is a shortcut for a validation error on a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{
		Err:    fmt.Errorf("%s: %s", field, msg),
		Fields: []FieldError{{Field: field, Error: msg}},
	}
}

func (err *ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}

// FieldMap flattens Fields into field -> message, first message wins.
func (err *ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		if _, ok := m[f.Field]; !ok {
			m[f.Field] = f.Error
		}
	}
	return m
}

// ConflictError means the teacher already holds the same (day, period) in another classroom.
type ConflictError struct {
	TeacherID                string
	Day                      DayName
	PeriodID                 string
	ConflictingClassroomID   uuid.UUID
	ConflictingClassroomName string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("teacher %s is already assigned to %s at %s/%s",
		e.TeacherID, e.ConflictingClassroomName, e.Day, e.PeriodID)
}

// NotFoundError is returned for unknown structure or classroom ids.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFound(entity string, id uuid.UUID) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// PersistenceError wraps a storage failure. The intended change must be assumed not applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err into a PersistenceError unless it is already one of the typed errors.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidation(err) || IsConflict(err) || IsNotFound(err) || IsPersistence(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

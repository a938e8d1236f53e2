package registrar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrNotRegistered  = errors.New("email not registered for restricted event")
	ErrResultsPrivate = errors.New("event results are not public")
)

// ValidationError lists the request fields that were missing or malformed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) add(field string) {
	e.Fields = append(e.Fields, field)
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StorageError wraps any failure reported by the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr leaves domain sentinels and validation errors alone.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrNotRegistered),
		errors.Is(err, ErrResultsPrivate),
		errors.As(err, &verr):
		return err
	}
	var serr *StorageError
	if errors.As(err, &serr) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

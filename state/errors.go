package state

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNoStore is raised when an operation needs a Store and none was
	// attached to the context.
	ErrNoStore = errors.New("no store in context")

	// ErrNotFound is raised when a value that must exist is absent. This
	// includes nested access to a cell while its own Update is running.
	ErrNotFound = errors.New("state not found")
)

// StateError captures the operation, identity and type alongside the cause.
// Operations that cannot continue panic with a *StateError.
type StateError struct {
	Op   string
	Id   Id
	Type reflect.Type
	Err  error
}

func (e *StateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Type == nil {
		return fmt.Sprintf("state: %s id=%s: %v", e.Op, e.Id, e.Err)
	}
	return fmt.Sprintf("state: %s %s id=%s: %v", e.Op, e.Type, e.Id, e.Err)
}

func (e *StateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func notFound[T any](op string, id Id) *StateError {
	return &StateError{Op: op, Id: id, Type: reflect.TypeFor[T](), Err: ErrNotFound}
}

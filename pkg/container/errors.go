package container

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrEntryNotFound        = errors.New("entry not found")
	ErrAdapterNotRegistered = errors.New("adapter not registered")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrDuplicateEntry       = errors.New("duplicate entry")
	ErrInvalidName          = errors.New("invalid entry name")
	ErrClosed               = errors.New("container is closed")
	ErrNoRegistry           = errors.New("no adapter registry")
)

// EntryNotFoundError is returned when a name cannot be found by a scan, or
// when the entry at an embedded position has a different name
type EntryNotFoundError struct {
	Name string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("entry not found: %q", e.Name)
}

func (e *EntryNotFoundError) Is(target error) bool {
	return target == ErrEntryNotFound
}

// AdapterNotRegisteredError is returned when a tag has no adapter
type AdapterNotRegisteredError struct {
	Tag string
}

func (e *AdapterNotRegisteredError) Error() string {
	return fmt.Sprintf("adapter not registered: %q", e.Tag)
}

func (e *AdapterNotRegisteredError) Is(target error) bool {
	return target == ErrAdapterNotRegistered
}

// TypeMismatchError is returned by typed reads when the stored value has a
// different Go type than requested
type TypeMismatchError struct {
	Name string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for entry %q: want %s, got %s", e.Name, e.Want, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// DuplicateEntryError is returned when writing a name that already exists
type DuplicateEntryError struct {
	Name string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("duplicate entry: %q", e.Name)
}

func (e *DuplicateEntryError) Is(target error) bool {
	return target == ErrDuplicateEntry
}

package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a LoadError whose source does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt marks a LoadError whose source could not be decoded or is inconsistent.
	ErrCorrupt = errors.New("corrupt")
	// ErrEmptyQuery is returned when a query names no entities.
	ErrEmptyQuery = errors.New("empty query: at least one entity id is required")
	// ErrCategoryUnavailable is returned for requests against a category whose store or index failed to load.
	ErrCategoryUnavailable = errors.New("service unavailable for this category")
	// ErrUnsupportedSort is returned when a secondary sort names an attribute the store does not carry.
	ErrUnsupportedSort = errors.New("unsupported sort attribute")
)

// LoadErrorKind distinguishes missing from unreadable sources.
type LoadErrorKind int

const (
	LoadNotFound LoadErrorKind = iota
	LoadCorrupt
)

func (k LoadErrorKind) String() string {
	if k == LoadNotFound {
		return "not found"
	}
	return "corrupt"
}

// LoadError is returned when a snapshot or prebuilt index cannot be loaded.
type LoadError struct {
	Kind     LoadErrorKind
	Category Category
	Source   string
	Err      error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s", e.Kind)
	if e.Category != "" {
		fmt.Fprintf(&b, " [%s]", e.Category)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " %s", e.Source)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches ErrNotFound and ErrCorrupt against the error kind.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == LoadNotFound
	case ErrCorrupt:
		return e.Kind == LoadCorrupt
	}
	return false
}

// NotFound builds a LoadError of kind LoadNotFound.
func NotFound(source string, err error) *LoadError {
	return &LoadError{Kind: LoadNotFound, Source: source, Err: err}
}

// Corrupt builds a LoadError of kind LoadCorrupt.
func Corrupt(source string, format string, args ...any) *LoadError {
	return &LoadError{Kind: LoadCorrupt, Source: source, Err: fmt.Errorf(format, args...)}
}

// UnknownEntityError names an id that is absent from a store.
type UnknownEntityError struct {
	ID          string
	Category    Category
	Suggestions []string
}

func (e *UnknownEntityError) Error() string {
	msg := fmt.Sprintf("unknown entity %q", e.ID)
	if e.Category != "" {
		msg += " in " + string(e.Category)
	}
	if len(e.Suggestions) > 0 {
		msg += " (did you mean: " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

// DimensionMismatchError reports a vector whose length differs from the index dimension.
// It indicates inconsistent stores and indexes, not a user error.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, expected %d", e.Got, e.Want)
}

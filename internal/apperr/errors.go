// Package apperr defines the error taxonomy shared across othala packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks a contract violation, such as building a
	// note without a path or indexing a file without an id.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a lookup miss (note id absent from the index).
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists marks a create colliding with an existing file.
	ErrAlreadyExists = errors.New("already exists")

	// ErrDuplicateID marks two files claiming the same note id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrNotRepository marks a history query against a notebook that is
	// not under version control. Mutating history operations report the
	// same condition through their Result instead.
	ErrNotRepository = errors.New("not a git repository")
)

// ParseError is a file-scoped front matter failure.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse front matter: %v", e.Err)
	}
	return fmt.Sprintf("parse front matter %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Package errors holds the error types shared by the pngmsg codec, the
// backup layer and the command line. Every typed error unwraps to one of
// the sentinels below unless it carries a more specific cause, so callers
// can branch with errors.Is without knowing which layer failed.
package errors

import (
	"errors"
	"fmt"
)

// Sentinels that the typed errors fall back to.
var (
	// ErrNotFound covers a missing chunk, backup or catalog row.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput covers bad chunk types, paths, flags and malformed files.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported covers image formats or URL schemes pngmsg cannot handle.
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError reports a lookup that matched nothing, such as a chunk type
// absent from a file or a backup ID absent from the catalog.
type NotFoundError struct {
	Resource string // "chunk", "backup", ...
	ID       string // chunk type or backup ID
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError rejects user input before any file is touched: a chunk
// type, a config key, a flag combination or a path.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s %q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError wraps a filesystem failure with the verb that failed.
type IOError struct {
	Operation string // "read", "write", "delete", "resolve"
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError reports a PNG datastream, image or config file that could not
// be decoded. Offset is the byte position where decoding stopped, or -1 for
// formats decoded by a library that does not report one. Path is filled in
// by the caller that read the file.
type ParseError struct {
	Format  string // "PNG", "image", "config"
	Path    string
	Offset  int64
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s (offset %d)", e.Message, e.Offset)
	}
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, msg)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, msg)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError reports a well-formed request pngmsg has no support for,
// like WebP output or an ftp:// download.
type UnsupportedError struct {
	Feature string
	Reason  string
	Err     error
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// NewNotFound returns a NotFoundError that unwraps to ErrNotFound.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation returns a ValidationError for field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError with an unknown offset.
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Offset:  -1,
		Message: message,
	}
}

// NewParseAt creates a ParseError at a byte offset wrapping err.
func NewParseAt(format string, offset int64, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Offset:  offset,
		Message: err.Error(),
		Err:     err,
	}
}

func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap prefixes err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

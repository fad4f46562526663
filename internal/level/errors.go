package level

import "fmt"

// ErrorCode classifies a level validation failure.
type ErrorCode string

const (
	ErrFileNotFound          ErrorCode = "file_not_found"
	ErrFileRead              ErrorCode = "file_read_error"
	ErrJSONParse             ErrorCode = "json_parse_error"
	ErrUnknownSchemaVersion  ErrorCode = "unknown_schema_version"
	ErrMissingArchetype      ErrorCode = "missing_archetype"
	ErrDuplicateArchetype    ErrorCode = "duplicate_archetype"
	ErrDanglingReference     ErrorCode = "dangling_reference"
	ErrBadScrollCurve        ErrorCode = "bad_scroll_curve"
	ErrInvalidScale          ErrorCode = "invalid_scale"
	ErrEmptySegments         ErrorCode = "empty_segments"
)

// LoadError is returned by Loader.Load/LoadLevel/ResolvePath with enough
// context to pinpoint the offending part of a level document. Load wraps
// read and parse failures with github.com/pkg/errors; errors.Cause
// recovers the *LoadError.
type LoadError struct {
	Code    ErrorCode
	Message string
	Path    string
	Pointer string
}

func (e *LoadError) Error() string {
	if e.Pointer != "" {
		return fmt.Sprintf("level %s: %s: %s (at %s)", e.Path, e.Code, e.Message, e.Pointer)
	}
	return fmt.Sprintf("level %s: %s: %s", e.Path, e.Code, e.Message)
}

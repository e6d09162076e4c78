package catalog

import "errors"

// Catalog errors
var (
	// ErrInvalidClip indicates a clip failed field validation
	ErrInvalidClip = errors.New("invalid clip")

	// ErrDuplicateClipID indicates two clips share an id
	ErrDuplicateClipID = errors.New("duplicate clip id")

	// ErrUnsupportedFormat indicates a catalog file format that cannot be decoded
	ErrUnsupportedFormat = errors.New("unsupported catalog format")

	// ErrSchemaViolation indicates a catalog document does not match the catalog schema
	ErrSchemaViolation = errors.New("catalog document violates schema")
)

// IsInvalid checks if the error rejects a catalog's contents
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidClip) || errors.Is(err, ErrDuplicateClipID) || errors.Is(err, ErrSchemaViolation)
}

package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds document, page and widget identifiers.
const maxIDLength = 128

// idRegex matches identifiers that are safe to embed in record paths and
// storage keys: letters, digits, dash and underscore.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func validateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "%s id contains invalid control characters", kind)
		}
	}
	if !idRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid %s id: %q", kind, id)
	}
	return nil
}

// ValidateWidgetID validates a widget identifier.
//
// Widget ids end up as path segments (infographs/{id}/widgets/{widgetId}),
// so the rules reject anything that could escape a path component:
//   - No empty ids
//   - Letters, digits, '-' and '_' only, starting with a letter or digit
//   - Maximum length of 128 characters
func ValidateWidgetID(id string) error {
	return validateID("widget", id)
}

// ValidatePageID validates a page identifier with the same rules as widget ids.
func ValidatePageID(id string) error {
	return validateID("page", id)
}

// ValidateDocumentID validates an infograph document identifier.
func ValidateDocumentID(id string) error {
	return validateID("document", id)
}

// ValidateRecordPath validates a persisted record path.
//
// Validation rules:
//   - Path cannot be empty
//   - No leading or trailing slash, no empty segments
//   - No path traversal sequences (..)
//   - No backslashes
func ValidateRecordPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidRecord, "record path cannot be empty")
	}
	if strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidRecord, "record path %q cannot start or end with /", path)
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidRecord, "record path %q cannot contain path traversal sequences (..)", path)
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidRecord, "record path %q cannot contain backslashes", path)
	}
	if strings.Contains(path, "//") {
		return New(ErrCodeInvalidRecord, "record path %q contains an empty segment", path)
	}
	return nil
}

package validation

import (
	"fmt"

	dErrors "witchmart/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed request body size (64 KB).
	MaxBodySize = 64 * 1024
)

// Field limits for user-authored text.
const (
	// MaxMessageLength bounds a single chat message, in bytes.
	MaxMessageLength = 4000

	// MaxFormFields is the most fields a harm scan request may carry.
	MaxFormFields = 50

	// MaxFormFieldLength bounds each string field of a harm scan request.
	MaxFormFieldLength = 8000
)

// CheckMapCount validates that a map does not exceed the maximum number of keys.
func CheckMapCount[V any](fieldName string, m map[string]V, max int) error {
	if len(m) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringValue validates every string value in m; other value types
// are skipped.
func CheckEachStringValue(fieldName string, m map[string]any, max int) error {
	for _, v := range m {
		if s, ok := v.(string); ok && len(s) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s value exceeds max length of %d", fieldName, max))
		}
	}
	return nil
}

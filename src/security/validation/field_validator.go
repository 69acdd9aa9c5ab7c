package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/username/markupx/backend/src/logger"
)

// ErrValidationFailed is wrapped by every validation error in this package.
var ErrValidationFailed = errors.New("validation failed")

var (
	// Common XSS vectors. Contextual output encoding is the primary defense;
	// this rejects obviously hostile text fields early.
	xssPatternsRegex = regexp.MustCompile(
		`(?i)<script|onerror=|onmouseover=|onfocus=|onload=|javascript:|vbscript:|<iframe|<object|<embed|<style|<link`,
	)

	// Symbol names in MT5 exports: letters, digits and a few separators.
	symbolNameRegex = regexp.MustCompile(`^[A-Za-z0-9._\-/#@ ]{1,64}$`)
)

func truncateForLog(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// CheckXSSPatterns detects basic XSS patterns in a free-text input field.
func CheckXSSPatterns(s, fieldName string) error {
	if xssPatternsRegex.MatchString(s) {
		logger.L.Warn("Potential XSS pattern detected", "field", fieldName, "contentPreview", truncateForLog(s, 50))
		return fmt.Errorf("%w: potential XSS pattern detected in field '%s'", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateSymbolName checks that a symbol string from an uploaded sheet or a
// manual-price line looks like an MT5 symbol.
func ValidateSymbolName(s string) error {
	if !symbolNameRegex.MatchString(s) {
		return fmt.Errorf("%w: invalid symbol name %q", ErrValidationFailed, truncateForLog(s, 50))
	}
	return nil
}

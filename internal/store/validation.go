package store

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// validNamePattern is the "host-provided" Unicode-aware regular expression
// the spec requires (§4.2: "tested against a Unicode-aware regular
// expression (regex is provided by the host; this spec requires only that
// the same string passes/fails the same test)"). It accepts any run of
// letters, digits, marks, spaces, and a small set of punctuation, and
// rejects control characters and leading/trailing whitespace (checked
// separately, see validateName).
var validNamePattern = regexp.MustCompile(`^[\p{L}\p{N}\p{M}][\p{L}\p{N}\p{M}\p{Zs}_.\-]*$`)

// normalizeName folds fullwidth/halfwidth variants (golang.org/x/text/width)
// and applies NFC normalization (golang.org/x/text/unicode/norm) ahead of
// the validity regex, standing in for the ICU validation the spec declares
// out of scope (§1) while keeping a concrete, testable pass in this repo.
func normalizeName(s string) string {
	return norm.NFC.String(width.Fold.String(s))
}

// validateLength checks a string's rune length against [min, max] and
// returns the specific VALUE_TOO_SHORT/VALUE_TOO_LONG status on violation,
// or OK.
func validateLength(s string, min, max int) StatusCode {
	n := utf8.RuneCountInString(s)
	if n < min {
		return ValueTooShort
	}
	if n > max {
		return ValueTooLong
	}
	return OK
}

// validateName runs the uniform name-validation pipeline (§4.2): no
// leading/trailing whitespace, length bounds, Unicode normalization, then
// the "valid name" regex.
func validateName(raw string, min, max int) (string, StatusCode) {
	if raw != strings.TrimSpace(raw) {
		return raw, InvalidParameters
	}
	if status := validateLength(raw, min, max); status != OK {
		return raw, status
	}
	normalized := normalizeName(raw)
	if !validNamePattern.MatchString(normalized) {
		return raw, InvalidParameters
	}
	return normalized, OK
}

// validateFreeText validates body/content style text: length-bounded,
// trimmed of surrounding whitespace, no further shape constraint (message
// and comment content is free-form, unlike names).
func validateFreeText(raw string, min, max int) (string, StatusCode) {
	trimmed := strings.TrimSpace(raw)
	if status := validateLength(trimmed, min, max); status != OK {
		return raw, status
	}
	return trimmed, OK
}

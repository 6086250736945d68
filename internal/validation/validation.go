// Package validation implements field-level request validation. Validators
// return nil on success so callers can collect every failure in one pass
// instead of failing on the first.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateLength returns an error if the value has fewer than min or more
// than max runes.
func ValidateLength(field, value string, min, max int) *ValidationError {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d characters", min, max),
		}
	}
	return nil
}

// ValidateRange returns an error if the value is outside [min, max].
func ValidateRange(field string, value, min, max float64) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %g and %g", min, max),
		}
	}
	return nil
}

// ValidateEmail returns an error if the value does not look like an email
// address. The check is deliberately shallow; delivery is never attempted.
func ValidateEmail(field, value string) *ValidationError {
	at := strings.Index(value, "@")
	if at < 1 || at == len(value)-1 || !strings.Contains(value[at+1:], ".") {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid email address",
		}
	}
	return nil
}

// ValidatePassword returns an error if the password is outside 8..128 runes.
func ValidatePassword(field, value string) *ValidationError {
	return ValidateLength(field, value, 8, 128)
}

// ValidateUF returns an error unless the value is exactly two ASCII letters.
// Callers should uppercase the value first with NormalizeUF.
func ValidateUF(field, value string) *ValidationError {
	if len(value) != 2 || !isLetter(value[0]) || !isLetter(value[1]) {
		return &ValidationError{
			Field:   field,
			Message: "must be a two-letter state code",
		}
	}
	return nil
}

// NormalizeUF uppercases and trims a state code.
func NormalizeUF(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func isLetter(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

const (
	yearMin = 2010
	yearMax = 2035
)

// ValidateYear returns an error if the year is outside the supported
// reference window.
func ValidateYear(field string, value int) *ValidationError {
	if value < yearMin || value > yearMax {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d", yearMin, yearMax),
		}
	}
	return nil
}

// ValidateYearOrder returns an error if the start year is after the end year.
func ValidateYearOrder(field string, from, to int) *ValidationError {
	if from > to {
		return &ValidationError{
			Field:   field,
			Message: "start year must not be after end year",
		}
	}
	return nil
}

// ValidateCity returns an error if the city name is outside 2..80 runes.
func ValidateCity(field, value string) *ValidationError {
	return ValidateLength(field, strings.TrimSpace(value), 2, 80)
}

// ValidatePrompt returns an error if the free-form prompt is outside
// 8..1800 runes.
func ValidatePrompt(field, value string) *ValidationError {
	return ValidateLength(field, strings.TrimSpace(value), 8, 1800)
}

// Scenario input bounds. Revenue is capped to keep the arithmetic in a
// range where float64 stays exact enough for currency.
const (
	maxBaseRevenue = 1e13
	maxICMSRate    = 40
	maxFCPRate     = 20
	maxRateDelta   = 10
)

// ValidateBaseRevenue returns an error unless 0 < value <= 1e13.
func ValidateBaseRevenue(field string, value float64) *ValidationError {
	if value <= 0 || value > maxBaseRevenue {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be positive and at most %g", maxBaseRevenue),
		}
	}
	return nil
}

// ValidateICMSRate returns an error if the rate is outside [0, 40].
func ValidateICMSRate(field string, value float64) *ValidationError {
	return ValidateRange(field, value, 0, maxICMSRate)
}

// ValidateFCPRate returns an error if the rate is outside [0, 20].
func ValidateFCPRate(field string, value float64) *ValidationError {
	return ValidateRange(field, value, 0, maxFCPRate)
}

// ValidateRateDelta returns an error if the delta is outside [-10, 10].
func ValidateRateDelta(field string, value float64) *ValidationError {
	return ValidateRange(field, value, -maxRateDelta, maxRateDelta)
}

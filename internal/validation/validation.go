package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID = fmt.Errorf("invalid UUID format")
	ErrInvalidDate = fmt.Errorf("invalid date format, expected YYYY-MM-DD")
)

// Error collects field-level validation failures for one request.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(msgs, "; ")
}

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateDate checks that a string is a calendar date in YYYY-MM-DD form
// and returns the parsed value.
func ValidateDate(s string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return date, nil
}

// ValidateTicker checks that a ticker symbol is present and plausibly
// formed: 1-10 characters, uppercase letters, digits, dots or dashes.
func ValidateTicker(ticker string) error {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if len(ticker) > 10 {
		return fmt.Errorf("ticker too long: %s", ticker)
	}
	for _, c := range ticker {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '-':
		default:
			return fmt.Errorf("invalid ticker: %s", ticker)
		}
	}
	return nil
}

package prompt

import (
	"errors"
	"strconv"
	"strings"
)

// Port bounds.
const (
	minPort = 1
	maxPort = 65535
)

// Validation errors shown next to the offending field.
var (
	ErrPathRequired    = errors.New("path is required")
	ErrInvalidPort     = errors.New("invalid port number")
	ErrInvalidMaxFiles = errors.New("invalid number")
)

// ValidatePath rejects an empty path.
func ValidatePath(value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrPathRequired
	}

	return nil
}

// ValidatePort accepts blank (keep the default) or an integer in 1..65535.
func ValidatePort(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port < minPort || port > maxPort {
		return ErrInvalidPort
	}

	return nil
}

// ValidateMaxFiles accepts blank (keep the default) or an integer of at least 1.
func ValidateMaxFiles(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return ErrInvalidMaxFiles
	}

	return nil
}

// intOr parses a validated field, falling back to def when blank.
func intOr(value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}

	return n
}

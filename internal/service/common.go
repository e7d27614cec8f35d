package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a mutation targets an id that is not in the
// day's aggregate.
var ErrNotFound = errors.New("not found")

func validateNonNegativeFloat(name string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	return nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

package services

import (
	"errors"
	"fmt"

	"github.com/Wikid82/warden/backend/internal/models"
)

// Error classes. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrInternal   = errors.New("internal error")
)

var (
	ErrIPRequired        = fmt.Errorf("%w: IP address required", ErrValidation)
	ErrIPTooLong         = fmt.Errorf("%w: IP address longer than %d characters", ErrValidation, models.MaxIPAddressLength)
	ErrMissingRuleParams = fmt.Errorf("%w: max_failed_attempts and block_duration are required", ErrValidation)
	ErrInvalidReason     = fmt.Errorf("%w: reason invalid for blocked IP", ErrValidation)
	ErrSearchRequired    = fmt.Errorf("%w: IP query is required", ErrValidation)

	ErrRuleNotFound = fmt.Errorf("%w: no active blocking rule", ErrNotFound)
	ErrIPNotFound   = fmt.Errorf("%w: IP not found", ErrNotFound)
)

func validateIP(ip string) error {
	switch {
	case ip == "":
		return ErrIPRequired
	case len(ip) > models.MaxIPAddressLength:
		return ErrIPTooLong
	}
	return nil
}

func internalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

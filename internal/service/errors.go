package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/freelance-market/internal/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
)

// RejectionError is a payment or deposit whose preconditions were not met.
// Nothing was written when it is returned.
type RejectionError struct {
	Reason model.RejectReason
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConflict, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return ErrConflict
}

func reject(reason model.RejectReason) error {
	return &RejectionError{Reason: reason}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

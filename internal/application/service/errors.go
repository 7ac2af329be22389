package service

import "errors"

var (
	// ErrPermissionDenied is returned when the actor's roles do not allow the action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation is returned for malformed input, before any storage call
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the order, line or vendor does not exist
	ErrNotFound = errors.New("not found")

	// ErrPrecondition is returned when the order is not in a state that allows the action
	ErrPrecondition = errors.New("precondition failed")

	// ErrPartialBatch is returned when some lines of an edit failed to apply
	ErrPartialBatch = errors.New("partial batch failure")

	// ErrConfirmationRequired is returned by deletes without an explicit confirmation
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrVendorInUse is returned when deleting a vendor referenced by order lines
	ErrVendorInUse = errors.New("vendor is referenced by orders")
)

package domain

import "errors"

var (
	// ErrNotFound is returned when an RFI does not exist.
	ErrNotFound = errors.New("rfi not found")

	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("invalid rfi status")

	// ErrInvalidPriority is returned for an unknown priority value.
	ErrInvalidPriority = errors.New("invalid rfi priority")

	// ErrInvalidTransition is returned when a lifecycle operation is not
	// allowed from the RFI's current status (e.g. answering a closed RFI).
	ErrInvalidTransition = errors.New("invalid rfi status transition")
)

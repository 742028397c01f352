package domain

import "errors"

var (
	// ErrRunNotFound is returned when a sync run is unknown or expired.
	ErrRunNotFound = errors.New("sync run not found")

	// ErrUnknownConnector is returned for a connector name the service
	// was not configured with.
	ErrUnknownConnector = errors.New("unknown connector")

	// ErrConnectorDisabled is returned when a connector has no credentials
	// configured.
	ErrConnectorDisabled = errors.New("connector is not configured")
)

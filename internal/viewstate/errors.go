package viewstate

import "errors"

var (
	// ErrAcquisitionFailure marks a fetch that failed at the network or parse level.
	ErrAcquisitionFailure = errors.New("acquisition failure")
	// ErrMalformedBatch marks a response whose result or meta has the wrong shape.
	ErrMalformedBatch = errors.New("malformed batch")
	// ErrInvalidEventPayload marks an event whose value is out of range or unknown.
	ErrInvalidEventPayload = errors.New("invalid event payload")
	// ErrStopped is returned by Dispatch once the controller loop has exited.
	ErrStopped = errors.New("controller stopped")
)

package bridge

import "errors"

// Errors returned by bridge operations.
var (
	// ErrMalformedPayload indicates an unparsable or structurally
	// invalid inbound payload.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrEcho indicates an inbound payload identical to the text the
	// bridge itself last wrote. Callers treat it as a signal to skip
	// the update, not as a failure.
	ErrEcho = errors.New("inbound payload is a write echo")

	// ErrNoPrimarySink indicates a publish attempt with no primary sink
	// configured.
	ErrNoPrimarySink = errors.New("no primary sink configured")
)

package wizard

import "errors"

var (
	// ErrInvalidTransition means the requested action is not valid for the
	// step the draft is currently on.
	ErrInvalidTransition = errors.New("action not valid for the current step")

	// ErrRequestInFlight guards the single outstanding backend request.
	ErrRequestInFlight = errors.New("a request is already in flight")

	// ErrSessionReset is returned when a backend response arrives after the
	// session was reset; the result has been discarded.
	ErrSessionReset = errors.New("session was reset while the request was in flight")
)

// ValidationError reports user input that failed a wizard gate. The user
// corrects the input and retries; no draft state changes.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BackendRejection is a well-formed negative answer from the booking
// backend. The draft holds its step so the user can retry.
type BackendRejection struct {
	Message string
}

func (e *BackendRejection) Error() string {
	return e.Message
}

// TransportError wraps a network or decode failure talking to the booking
// backend. User-visible behavior matches BackendRejection; the distinction
// exists for diagnostics.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "booking backend unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers DNS, TCP, TLS, timeouts and cancelled contexts.
	ErrTransport = errors.New("portal transport failure")
	// ErrRemoteRejection is returned for any non 2xx status.
	ErrRemoteRejection = errors.New("portal rejected request")
	// ErrDecode means the body did not match the expected shape.
	ErrDecode = errors.New("unable to decode portal response")
)

// ResponseError carries the status and body of a rejected request.
type ResponseError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s returned HTTP %d: %s", ErrRemoteRejection, e.Endpoint, e.StatusCode, e.Body)
}

func (e *ResponseError) Unwrap() error {
	return ErrRemoteRejection
}

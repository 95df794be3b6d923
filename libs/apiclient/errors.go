package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/petsocial/petsocial/libs/validate"
)

var (
	// ErrUnauthorized is returned for every 401, whether or not the token
	// refresh that follows it succeeds. The request is never replayed.
	ErrUnauthorized = errors.New("session expired, please sign in again")
	ErrRateLimited  = errors.New("too many requests, wait a moment and try again")
	ErrTimeout      = errors.New("request timed out")
)

// HTTPError is a non-2xx answer, or a 2xx envelope carrying success:false.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, http.StatusText(e.Status))
}

// NetworkError wraps a transport level failure: DNS, refused connection,
// reset, undecodable body.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// Message returns the text to show for err: the server supplied message,
// the validation failure, or the fixed text of an auth, rate limit or
// timeout error. Anything else yields fallback.
func Message(err error, fallback string) string {
	var (
		he *HTTPError
		ve *validate.ValidationError
	)
	switch {
	case errors.As(err, &he) && he.Message != "":
		return he.Message
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrRateLimited), errors.Is(err, ErrTimeout):
		return err.Error()
	}
	return fallback
}

// State is where a single request ended up.
type State int

const (
	StateIdle State = iota
	StateInFlight
	StateSuccess
	StateHTTPError
	StateTimeout
	StateNetworkError
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInFlight:
		return "in-flight"
	case StateSuccess:
		return "success"
	case StateHTTPError:
		return "http-error"
	case StateTimeout:
		return "timeout"
	case StateNetworkError:
		return "network-error"
	case StateCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Classify maps the error returned by a call to its terminal state.
func Classify(err error) State {
	var (
		he *HTTPError
		ne *NetworkError
	)
	switch {
	case err == nil:
		return StateSuccess
	case errors.Is(err, ErrTimeout):
		return StateTimeout
	case errors.Is(err, context.Canceled):
		return StateCanceled
	case errors.As(err, &ne):
		return StateNetworkError
	case errors.As(err, &he), errors.Is(err, ErrUnauthorized), errors.Is(err, ErrRateLimited):
		return StateHTTPError
	default:
		return StateHTTPError
	}
}

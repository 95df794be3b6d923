// Package secevent records client-side security events: failed token
// refreshes, cleared credentials, rate limiting and suspicious input.
package secevent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TokenRefreshFailed Type = "token_refresh_failed"
	CredentialsCleared Type = "credentials_cleared"
	RateLimited        Type = "rate_limited"
	XSSDetected        Type = "xss_detected"
	Login              Type = "login"
	Logout             Type = "logout"
)

type Event struct {
	ID      string            `json:"id"`
	Type    Type              `json:"type"`
	At      time.Time         `json:"at"`
	Details map[string]string `json:"details,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, details map[string]string) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    t,
		At:      time.Now().UTC(),
		Details: details,
	}
}

type Sink interface {
	Record(ctx context.Context, ev Event) error
	Close() error
}

type nopSink struct{}

func (nopSink) Record(context.Context, Event) error { return nil }
func (nopSink) Close() error                        { return nil }

// Nop discards every event.
func Nop() Sink { return nopSink{} }

type multiSink []Sink

// Multi fans an event out to every sink. Errors are joined; one failing sink
// does not stop the others.
func Multi(sinks ...Sink) Sink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return Nop()
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multiSink) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiSink) Close() error {
	var errs []error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package appointments holds the "my appointments" screen state: the list
// snapshot and the confirm-then-cancel action.
package appointments

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/runtime"
)

// ErrDeclined is returned by Cancel when the user says no at the prompt.
var ErrDeclined = errors.New("cancellation declined")

const (
	titleError   = "Error"
	titleSuccess = "Success"
	titleConfirm = "Cancel appointment"

	msgLoadFailed   = "Could not load your appointments."
	msgConfirm      = "Are you sure you want to cancel this appointment?"
	msgCancelled    = "Appointment cancelled."
	msgCancelFailed = "Could not cancel the appointment."
)

type API interface {
	MyAppointments(ctx context.Context) ([]apiclient.Appointment, error)
	CancelAppointment(ctx context.Context, id int64) (*apiclient.Envelope, error)
}

type Dialog interface {
	Alert(title, message string)
	Confirm(title, message string) bool
}

type Screen struct {
	api    API
	dialog Dialog
	logger *slog.Logger

	mu      sync.Mutex
	list    []apiclient.Appointment
	loading bool
}

func New(api API, dialog Dialog, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = runtime.Discard()
	}
	return &Screen{api: api, dialog: dialog, logger: logger}
}

// Load replaces the snapshot with the backend list. On failure the previous
// snapshot stays and the user is alerted.
func (s *Screen) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	list, err := s.api.MyAppointments(ctx)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.list = list
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("load appointments failed", "err", err)
		s.dialog.Alert(titleError, apiclient.Message(err, msgLoadFailed))
		return err
	}
	return nil
}

// Cancel asks for confirmation, deletes the appointment and refetches the
// list once whatever the delete returned. The delete error wins over a
// refetch error.
func (s *Screen) Cancel(ctx context.Context, id int64) error {
	if !s.dialog.Confirm(titleConfirm, msgConfirm) {
		return ErrDeclined
	}

	env, err := s.api.CancelAppointment(ctx, id)
	if err != nil {
		s.logger.Warn("cancel appointment failed", "appointment_id", id, "err", err)
		s.dialog.Alert(titleError, apiclient.Message(err, msgCancelFailed))
	} else {
		msg := msgCancelled
		if env != nil && env.Message != "" {
			msg = env.Message
		}
		s.logger.Info("appointment cancelled", "appointment_id", id)
		s.dialog.Alert(titleSuccess, msg)
	}

	if lerr := s.Load(ctx); err == nil {
		err = lerr
	}
	return err
}

func (s *Screen) Appointments() []apiclient.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.list)
}

func (s *Screen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

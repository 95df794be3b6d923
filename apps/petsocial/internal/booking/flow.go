// Package booking drives the appointment booking screen: pick a date, load
// the free times for it, pick one of them, submit.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/runtime"
)

var (
	ErrSelectionIncomplete = errors.New("select a date and a time")
	ErrSubmitInFlight      = errors.New("booking already in progress")
	ErrUnknownTime         = errors.New("time is not in the available list")
)

const (
	titleError   = "Error"
	titleSuccess = "Success"

	msgTimesFailed   = "Could not load the available times."
	msgSelectBoth    = "Please select a date and a time."
	msgBooked        = "Appointment booked!"
	msgBookingFailed = "Could not book the service."
)

type API interface {
	AvailableTimes(ctx context.Context, q apiclient.AvailabilityQuery) ([]string, error)
	Schedule(ctx context.Context, in apiclient.ScheduleRequest, idempotencyKey string) (*apiclient.ScheduleResponse, error)
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(title, message string)
}

type Navigator interface {
	Back()
}

type Flow struct {
	api     API
	alert   Alerter
	nav     Navigator
	logger  *slog.Logger
	newKey  func() string
	service apiclient.Service

	businessID int64

	mu          sync.Mutex
	date        string
	time        string
	times       []string
	loading     bool
	seq         uint64
	cancelQuery context.CancelFunc
	submitting  bool

	// key is reused while the (date, time) pair it was minted for stays
	// selected, so a resubmission after a failure is deduplicated upstream.
	key     string
	keyDate string
	keyTime string
}

type Option func(*Flow)

func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// WithKeyFunc overrides idempotency key generation.
func WithKeyFunc(fn func() string) Option {
	return func(f *Flow) { f.newKey = fn }
}

func New(api API, alert Alerter, nav Navigator, businessID int64, service apiclient.Service, opts ...Option) *Flow {
	f := &Flow{
		api:        api,
		alert:      alert,
		nav:        nav,
		businessID: businessID,
		service:    service,
		newKey:     uuid.NewString,
		logger:     runtime.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot is what the screen renders.
type Snapshot struct {
	Date       string
	Time       string
	Times      []string
	Loading    bool
	Submitting bool
	CanSubmit  bool
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Date:       f.date,
		Time:       f.time,
		Times:      slices.Clone(f.times),
		Loading:    f.loading,
		Submitting: f.submitting,
		CanSubmit:  f.canSubmitLocked(),
	}
}

func (f *Flow) Service() apiclient.Service { return f.service }

// SelectDate makes date current, drops the previous time choice and loads
// the free times for it. An older query still running is cancelled and its
// answer, if one arrives anyway, is ignored. An empty date only clears the
// selection.
func (f *Flow) SelectDate(ctx context.Context, date string) error {
	f.mu.Lock()
	f.seq++
	seq := f.seq
	if f.cancelQuery != nil {
		f.cancelQuery()
		f.cancelQuery = nil
	}
	f.date = date
	f.time = ""
	f.times = nil
	f.loading = false
	if date == "" {
		f.mu.Unlock()
		return nil
	}
	qctx, cancel := context.WithCancel(ctx)
	f.cancelQuery = cancel
	f.loading = true
	f.mu.Unlock()
	defer cancel()

	times, err := f.api.AvailableTimes(qctx, apiclient.AvailabilityQuery{
		BusinessID: f.businessID,
		ServiceID:  f.service.ID,
		Date:       date,
	})

	f.mu.Lock()
	if seq != f.seq {
		f.mu.Unlock()
		f.logger.Debug("stale availability discarded", "date", date)
		return nil
	}
	f.loading = false
	f.cancelQuery = nil
	if err != nil {
		f.times = nil
		f.mu.Unlock()
		f.logger.Warn("availability query failed", "date", date, "err", err)
		f.alert.Alert(titleError, msgTimesFailed)
		return err
	}
	f.times = times
	f.mu.Unlock()
	return nil
}

func (f *Flow) SelectTime(t string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.Contains(f.times, t) {
		return ErrUnknownTime
	}
	f.time = t
	return nil
}

func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmitLocked()
}

func (f *Flow) canSubmitLocked() bool {
	return f.date != "" && f.time != "" && !f.submitting
}

// Submit books the selected slot with a single create call. On success the
// screen is popped.
func (f *Flow) Submit(ctx context.Context) (*apiclient.Appointment, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if f.date == "" || f.time == "" {
		f.mu.Unlock()
		f.alert.Alert(titleError, msgSelectBoth)
		return nil, ErrSelectionIncomplete
	}
	f.submitting = true
	in := apiclient.ScheduleRequest{
		BusinessID: f.businessID,
		ServiceID:  f.service.ID,
		Date:       f.date,
		Time:       f.time,
	}
	if f.key == "" || f.keyDate != f.date || f.keyTime != f.time {
		f.key, f.keyDate, f.keyTime = f.newKey(), f.date, f.time
	}
	key := f.key
	f.mu.Unlock()

	resp, err := f.api.Schedule(ctx, in, key)

	f.mu.Lock()
	f.submitting = false
	if err == nil {
		f.key = ""
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("booking failed", "date", in.Date, "time", in.Time, "err", err)
		f.alert.Alert(titleError, apiclient.Message(err, msgBookingFailed))
		return nil, err
	}
	f.logger.Info("appointment booked", "business_id", in.BusinessID, "service_id", in.ServiceID, "date", in.Date, "time", in.Time)
	msg := msgBooked
	if resp != nil && resp.Message != "" {
		msg = resp.Message
	}
	f.alert.Alert(titleSuccess, msg)
	f.nav.Back()
	if resp == nil {
		return nil, nil
	}
	return resp.Appointment, nil
}

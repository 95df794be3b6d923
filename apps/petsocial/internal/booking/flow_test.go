package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/petsocial/petsocial/libs/apiclient"
)

type fakeAPI struct {
	mu        sync.Mutex
	times     map[string][]string
	timesErr  error
	gate      map[string]chan struct{}
	queries   []apiclient.AvailabilityQuery
	schedules []apiclient.ScheduleRequest
	keys      []string
	schedErr  error
	started   chan string
}

func (f *fakeAPI) AvailableTimes(ctx context.Context, q apiclient.AvailabilityQuery) ([]string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.gate[q.Date]
	f.mu.Unlock()
	if f.started != nil {
		f.started <- q.Date
	}
	if gate != nil {
		<-gate
	}
	if f.timesErr != nil {
		return nil, f.timesErr
	}
	return f.times[q.Date], nil
}

func (f *fakeAPI) Schedule(_ context.Context, in apiclient.ScheduleRequest, key string) (*apiclient.ScheduleResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules = append(f.schedules, in)
	f.keys = append(f.keys, key)
	if f.schedErr != nil {
		return nil, f.schedErr
	}
	appt := &apiclient.Appointment{ID: int64(len(f.schedules)), Date: in.Date, Time: in.Time, Status: apiclient.StatusConfirmed}
	return &apiclient.ScheduleResponse{Appointment: appt}, nil
}

type alert struct{ title, message string }

type recorder struct {
	alerts []alert
	backs  int
}

func (r *recorder) Alert(title, message string) { r.alerts = append(r.alerts, alert{title, message}) }
func (r *recorder) Back()                       { r.backs++ }

func newFlow(api API, rec *recorder) *Flow {
	n := 0
	return New(api, rec, rec, 7, apiclient.Service{ID: 3, Name: "Banho"}, WithKeyFunc(func() string {
		n++
		return "key-" + string(rune('0'+n))
	}))
}

func TestSubmitDisabledUntilDateAndTime(t *testing.T) {
	api := &fakeAPI{times: map[string][]string{"2030-01-02": {"09:00", "10:00"}}}
	rec := &recorder{}
	f := newFlow(api, rec)

	if f.CanSubmit() {
		t.Fatal("submit must be disabled with nothing selected")
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrSelectionIncomplete) {
		t.Fatalf("expected ErrSelectionIncomplete, got %v", err)
	}
	if err := f.SelectDate(context.Background(), "2030-01-02"); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	if f.CanSubmit() {
		t.Fatal("submit must be disabled without a time")
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrSelectionIncomplete) {
		t.Fatalf("expected ErrSelectionIncomplete, got %v", err)
	}
	if len(api.schedules) != 0 {
		t.Fatalf("no create call expected, got %d", len(api.schedules))
	}
	if len(rec.alerts) != 2 || rec.alerts[0].message != msgSelectBoth {
		t.Fatalf("unexpected alerts %+v", rec.alerts)
	}
}

func TestSubmitSendsSelectedTime(t *testing.T) {
	api := &fakeAPI{times: map[string][]string{"2030-01-02": {"09:00", "10:00"}}}
	rec := &recorder{}
	f := newFlow(api, rec)
	ctx := context.Background()

	if err := f.SelectDate(ctx, "2030-01-02"); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	if q := api.queries[0]; q.BusinessID != 7 || q.ServiceID != 3 || q.Date != "2030-01-02" {
		t.Fatalf("unexpected query %+v", q)
	}
	if err := f.SelectTime("11:00"); !errors.Is(err, ErrUnknownTime) {
		t.Fatalf("expected ErrUnknownTime, got %v", err)
	}
	if err := f.SelectTime("10:00"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	if !f.CanSubmit() {
		t.Fatal("submit should be enabled")
	}
	appt, err := f.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(api.schedules) != 1 || api.schedules[0].Time != "10:00" || api.schedules[0].Date != "2030-01-02" {
		t.Fatalf("expected one create call for 10:00, got %+v", api.schedules)
	}
	if appt == nil || appt.Time != "10:00" {
		t.Fatalf("unexpected appointment %+v", appt)
	}
	if rec.backs != 1 || rec.alerts[len(rec.alerts)-1].title != titleSuccess {
		t.Fatalf("expected success alert and navigation, got %+v backs=%d", rec.alerts, rec.backs)
	}
}

func TestSelectDateResetsTime(t *testing.T) {
	api := &fakeAPI{times: map[string][]string{"2030-01-02": {"09:00"}, "2030-01-03": {"14:00"}}}
	f := newFlow(api, &recorder{})
	ctx := context.Background()

	_ = f.SelectDate(ctx, "2030-01-02")
	_ = f.SelectTime("09:00")
	_ = f.SelectDate(ctx, "2030-01-03")
	snap := f.Snapshot()
	if snap.Time != "" || len(snap.Times) != 1 || snap.Times[0] != "14:00" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestEmptyDateClearsWithoutQuery(t *testing.T) {
	api := &fakeAPI{times: map[string][]string{"2030-01-02": {"09:00"}}}
	rec := &recorder{}
	f := newFlow(api, rec)
	ctx := context.Background()

	_ = f.SelectDate(ctx, "2030-01-02")
	_ = f.SelectTime("09:00")
	if err := f.SelectDate(ctx, ""); err != nil {
		t.Fatalf("SelectDate(\"\") failed: %v", err)
	}
	snap := f.Snapshot()
	if snap.Date != "" || snap.Time != "" || len(snap.Times) != 0 || snap.Loading || snap.CanSubmit {
		t.Fatalf("selection not cleared: %+v", snap)
	}
	if len(api.queries) != 1 {
		t.Fatalf("empty date must not query, got %d queries", len(api.queries))
	}
	if len(rec.alerts) != 0 {
		t.Fatalf("unexpected alerts %+v", rec.alerts)
	}
}

func TestAvailabilityFailureAlertsAndEmptiesList(t *testing.T) {
	api := &fakeAPI{timesErr: apiclient.ErrTimeout}
	rec := &recorder{}
	f := newFlow(api, rec)

	if err := f.SelectDate(context.Background(), "2030-01-02"); !errors.Is(err, apiclient.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if snap := f.Snapshot(); len(snap.Times) != 0 || snap.Loading {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(rec.alerts) != 1 || rec.alerts[0].message != msgTimesFailed {
		t.Fatalf("unexpected alerts %+v", rec.alerts)
	}
	if len(api.queries) != 1 {
		t.Fatalf("no retry expected, got %d queries", len(api.queries))
	}
}

func TestStaleAvailabilityIsDiscarded(t *testing.T) {
	slow := make(chan struct{})
	api := &fakeAPI{
		times:   map[string][]string{"2030-01-02": {"09:00"}, "2030-01-03": {"15:00"}},
		gate:    map[string]chan struct{}{"2030-01-02": slow},
		started: make(chan string, 2),
	}
	f := newFlow(api, &recorder{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.SelectDate(ctx, "2030-01-02") }()
	<-api.started

	if err := f.SelectDate(ctx, "2030-01-03"); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	<-api.started
	close(slow)
	if err := <-done; err != nil {
		t.Fatalf("stale query should end quietly, got %v", err)
	}

	snap := f.Snapshot()
	if snap.Date != "2030-01-03" || len(snap.Times) != 1 || snap.Times[0] != "15:00" {
		t.Fatalf("older answer overwrote the newer selection: %+v", snap)
	}
}

func TestFailedSubmitKeepsKeyForSameSlot(t *testing.T) {
	api := &fakeAPI{
		times:    map[string][]string{"2030-01-02": {"09:00", "10:00"}},
		schedErr: &apiclient.HTTPError{Status: 409, Message: "time slot not available"},
	}
	rec := &recorder{}
	f := newFlow(api, rec)
	ctx := context.Background()
	_ = f.SelectDate(ctx, "2030-01-02")
	_ = f.SelectTime("09:00")

	if _, err := f.Submit(ctx); err == nil {
		t.Fatal("expected error")
	}
	if got := rec.alerts[len(rec.alerts)-1]; got.title != titleError || got.message != "time slot not available" {
		t.Fatalf("expected server message alert, got %+v", got)
	}
	if rec.backs != 0 {
		t.Fatal("failure must not navigate")
	}

	_, _ = f.Submit(ctx)
	_ = f.SelectTime("10:00")
	_, _ = f.Submit(ctx)
	if len(api.keys) != 3 || api.keys[0] != api.keys[1] || api.keys[1] == api.keys[2] {
		t.Fatalf("unexpected idempotency keys %v", api.keys)
	}

	api.schedErr = errors.New("connection reset")
	_, _ = f.Submit(ctx)
	if got := rec.alerts[len(rec.alerts)-1]; got.message != msgBookingFailed {
		t.Fatalf("expected generic message, got %+v", got)
	}
}

type blockingAPI struct {
	fakeAPI
	release chan struct{}
	entered chan struct{}
}

func (b *blockingAPI) Schedule(ctx context.Context, in apiclient.ScheduleRequest, key string) (*apiclient.ScheduleResponse, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.fakeAPI.Schedule(ctx, in, key)
}

func TestDoubleSubmitIsRejected(t *testing.T) {
	api := &blockingAPI{
		fakeAPI: fakeAPI{times: map[string][]string{"2030-01-02": {"09:00"}}},
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	f := newFlow(api, &recorder{})
	ctx := context.Background()
	_ = f.SelectDate(ctx, "2030-01-02")
	_ = f.SelectTime("09:00")

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(ctx)
		done <- err
	}()
	<-api.entered
	if f.CanSubmit() {
		t.Fatal("submit must be disabled while in flight")
	}
	if _, err := f.Submit(ctx); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	close(api.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if len(api.schedules) != 1 {
		t.Fatalf("expected a single create call, got %d", len(api.schedules))
	}
}

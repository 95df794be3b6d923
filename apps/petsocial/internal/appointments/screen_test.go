package appointments

import (
	"context"
	"errors"
	"testing"

	"github.com/petsocial/petsocial/libs/apiclient"
)

type fakeAPI struct {
	calls     []string
	list      []apiclient.Appointment
	listErr   error
	cancelErr error
}

func (f *fakeAPI) MyAppointments(context.Context) ([]apiclient.Appointment, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeAPI) CancelAppointment(_ context.Context, id int64) (*apiclient.Envelope, error) {
	f.calls = append(f.calls, "delete")
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	for i := range f.list {
		if f.list[i].ID == id {
			f.list[i].Status = apiclient.StatusCancelled
		}
	}
	return &apiclient.Envelope{}, nil
}

type dialog struct {
	answer bool
	alerts []string
}

func (d *dialog) Alert(title, message string) { d.alerts = append(d.alerts, title+": "+message) }
func (d *dialog) Confirm(string, string) bool { return d.answer }

func TestCancelDeletesThenRefetchesOnce(t *testing.T) {
	api := &fakeAPI{list: []apiclient.Appointment{{ID: 1, Status: apiclient.StatusConfirmed}}}
	d := &dialog{answer: true}
	s := New(api, d, nil)
	ctx := context.Background()

	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	api.calls = nil
	if err := s.Cancel(ctx, 1); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if len(api.calls) != 2 || api.calls[0] != "delete" || api.calls[1] != "list" {
		t.Fatalf("expected delete then one refetch, got %v", api.calls)
	}
	if got := s.Appointments(); got[0].Status != apiclient.StatusCancelled {
		t.Fatalf("snapshot not refreshed: %+v", got)
	}
	if len(d.alerts) != 1 || d.alerts[0] != titleSuccess+": "+msgCancelled {
		t.Fatalf("unexpected alerts %v", d.alerts)
	}
}

func TestCancelFailureStillRefetches(t *testing.T) {
	api := &fakeAPI{cancelErr: &apiclient.HTTPError{Status: 404, Message: "appointment not found"}}
	d := &dialog{answer: true}
	s := New(api, d, nil)

	err := s.Cancel(context.Background(), 9)
	var he *apiclient.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if len(api.calls) != 2 || api.calls[1] != "list" {
		t.Fatalf("expected one refetch after failure, got %v", api.calls)
	}
	if len(d.alerts) != 1 || d.alerts[0] != titleError+": appointment not found" {
		t.Fatalf("failure must be alerted, got %v", d.alerts)
	}
}

func TestCancelDeclinedDoesNothing(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, &dialog{answer: false}, nil)
	if err := s.Cancel(context.Background(), 1); !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("no calls expected, got %v", api.calls)
	}
}

func TestLoadFailureKeepsSnapshot(t *testing.T) {
	api := &fakeAPI{list: []apiclient.Appointment{{ID: 1}}}
	d := &dialog{}
	s := New(api, d, nil)
	ctx := context.Background()
	_ = s.Load(ctx)

	api.listErr = &apiclient.NetworkError{Err: errors.New("refused")}
	if err := s.Load(ctx); err == nil {
		t.Fatal("expected error")
	}
	if len(s.Appointments()) != 1 {
		t.Fatal("previous snapshot should survive a failed load")
	}
	if len(d.alerts) != 1 || d.alerts[0] != titleError+": "+msgLoadFailed {
		t.Fatalf("unexpected alerts %v", d.alerts)
	}
}

package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/credstore"
	"github.com/petsocial/petsocial/libs/mockapi"
	"github.com/petsocial/petsocial/libs/runtime"
	"github.com/petsocial/petsocial/libs/secevent"
)

type countingSink struct {
	events []secevent.Event
	closed bool
}

func (s *countingSink) Record(_ context.Context, ev secevent.Event) error {
	s.events = append(s.events, ev)
	return nil
}

func (s *countingSink) Close() error {
	s.closed = true
	return nil
}

type screen struct {
	alerts []string
	backs  int
}

func (s *screen) Alert(title, message string) { s.alerts = append(s.alerts, title+": "+message) }
func (s *screen) Confirm(string, string) bool { return true }
func (s *screen) Back()                       { s.backs++ }

func TestAppBookingJourney(t *testing.T) {
	srv := httptest.NewServer(mockapi.New(mockapi.Config{Logger: runtime.Discard()}).Handler())
	defer srv.Close()

	ctx := context.Background()
	sink := &countingSink{}
	a, err := New(ctx, Config{
		API:          apiclient.Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second},
		CredstoreURL: "memory://",
	}, WithLogger(runtime.Discard()), WithSink(sink))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(a.Session.Providers()) == 0 || a.Theme.Color("primary") == "" {
		t.Fatal("start should load providers and theme")
	}
	if _, err := a.Session.Login(ctx, "google", "journey"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	detail, err := a.Directory.Detail(ctx, 2)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	ui := &screen{}
	flow := a.Booking(ui, ui, detail.Business.ID, detail.Services[0])
	date := time.Now().UTC().AddDate(0, 0, 3).Format(time.DateOnly)
	if err := flow.SelectDate(ctx, date); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	times := flow.Snapshot().Times
	if len(times) == 0 {
		t.Fatal("no times offered")
	}
	if err := flow.SelectTime(times[0]); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	if _, err := flow.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if ui.backs != 1 {
		t.Fatalf("expected navigation back, got %d", ui.backs)
	}

	list := a.Appointments(ui)
	if err := list.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	appts := list.Appointments()
	if len(appts) != 1 || appts[0].Time != times[0] {
		t.Fatalf("unexpected appointments %+v", appts)
	}
	if err := list.Cancel(ctx, appts[0].ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if got := list.Appointments(); got[0].Status != apiclient.StatusCancelled {
		t.Fatalf("appointment not cancelled: %+v", got)
	}

	if err := a.Session.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !sink.closed {
		t.Fatal("sinks should be closed")
	}
	var sawLogin bool
	for _, ev := range sink.events {
		sawLogin = sawLogin || ev.Type == secevent.Login
	}
	if !sawLogin {
		t.Fatalf("login event missing: %+v", sink.events)
	}
}

func TestNewRejectsBadStoreURL(t *testing.T) {
	_, err := New(context.Background(), Config{CredstoreURL: "ftp://nope"}, WithLogger(runtime.Discard()))
	if err == nil {
		t.Fatal("expected error for unsupported store")
	}
}

type closeCountingStore struct {
	*credstore.MemoryStore
	closes int
}

func (s *closeCountingStore) Close() error {
	s.closes++
	return nil
}

func TestWithStoreSkipsOpen(t *testing.T) {
	store := &closeCountingStore{MemoryStore: credstore.NewMemoryStore()}
	a, err := New(context.Background(), Config{CredstoreURL: "ftp://ignored"}, WithLogger(runtime.Discard()), WithStore(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.Store != credstore.Store(store) || a.Client.Store() != credstore.Store(store) {
		t.Fatal("injected store not used")
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if store.closes != 0 {
		t.Fatalf("injected store closed %d times, want 0", store.closes)
	}
}

package mockapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/credstore"
	"github.com/petsocial/petsocial/libs/httpx"
	"github.com/petsocial/petsocial/libs/validate"
)

func newBackend(t *testing.T, cfg Config) (*apiclient.Client, credstore.Store) {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(srv.Close)
	store := credstore.NewMemoryStore()
	c := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second}, apiclient.WithStore(store))
	return c, store
}

func login(t *testing.T, c *apiclient.Client, store credstore.Store) apiclient.User {
	t.Helper()
	ctx := context.Background()
	resp, err := c.Login(ctx, apiclient.LoginRequest{Provider: "google", Code: "ana"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := store.Set(ctx, credstore.Credentials{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}); err != nil {
		t.Fatalf("store tokens: %v", err)
	}
	return resp.User
}

// bookableDate is far enough ahead to be in the future in every time zone.
func bookableDate() string {
	return time.Now().UTC().AddDate(0, 0, 2).Format(time.DateOnly)
}

func TestBookingLifecycle(t *testing.T) {
	c, store := newBackend(t, Config{})
	ctx := context.Background()
	login(t, c, store)

	q := apiclient.AvailabilityQuery{BusinessID: 1, ServiceID: 1, Date: bookableDate()}
	times, err := c.AvailableTimes(ctx, q)
	if err != nil {
		t.Fatalf("AvailableTimes failed: %v", err)
	}
	if len(times) == 0 || times[0] != "09:00" {
		t.Fatalf("unexpected times %v", times)
	}

	resp, err := c.Schedule(ctx, apiclient.ScheduleRequest{BusinessID: 1, ServiceID: 1, Date: q.Date, Time: "10:00"}, "k1")
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if resp.Appointment == nil || resp.Appointment.Status != apiclient.StatusConfirmed || resp.Appointment.ServiceName != "Banho" {
		t.Fatalf("unexpected appointment %+v", resp.Appointment)
	}

	// Same key replays the first answer instead of booking twice.
	again, err := c.Schedule(ctx, apiclient.ScheduleRequest{BusinessID: 1, ServiceID: 1, Date: q.Date, Time: "10:00"}, "k1")
	if err != nil || again.Appointment == nil || again.Appointment.ID != resp.Appointment.ID {
		t.Fatalf("expected replay of appointment %d, got %+v (err=%v)", resp.Appointment.ID, again, err)
	}

	// A different key for an overlapping slot is refused.
	_, err = c.Schedule(ctx, apiclient.ScheduleRequest{BusinessID: 1, ServiceID: 1, Date: q.Date, Time: "10:30"}, "k2")
	var he *apiclient.HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusConflict {
		t.Fatalf("expected 409 for overlapping slot, got %v", err)
	}

	times, _ = c.AvailableTimes(ctx, q)
	for _, tm := range times {
		if tm == "10:00" || tm == "10:30" {
			t.Fatalf("booked slot still offered: %v", times)
		}
	}

	list, err := c.MyAppointments(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one appointment, got %+v (err=%v)", list, err)
	}

	if _, err := c.CancelAppointment(ctx, list[0].ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	list, _ = c.MyAppointments(ctx)
	if len(list) != 1 || list[0].Status != apiclient.StatusCancelled {
		t.Fatalf("expected soft-cancelled appointment, got %+v", list)
	}
	times, _ = c.AvailableTimes(ctx, q)
	found := false
	for _, tm := range times {
		found = found || tm == "10:00"
	}
	if !found {
		t.Fatalf("cancelled slot should be free again: %v", times)
	}

	if _, err := c.CancelAppointment(ctx, 999); err == nil {
		t.Fatal("expected not found for unknown appointment")
	}
}

func TestProtectedEndpointsNeedToken(t *testing.T) {
	c, _ := newBackend(t, Config{})
	if _, err := c.MyAppointments(context.Background()); !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	c, store := newBackend(t, Config{})
	ctx := context.Background()
	login(t, c, store)
	creds, _ := store.Get(ctx)
	oldRefresh := creds.RefreshToken

	// Force a 401 with a bogus access token; the client refreshes once.
	_ = store.Set(ctx, creds.WithTokens("bogus.token.value", oldRefresh))
	if _, err := c.MyAppointments(ctx); !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	creds, _ = store.Get(ctx)
	if creds.RefreshToken == "" || creds.RefreshToken == oldRefresh {
		t.Fatalf("expected rotated refresh token, got %+v", creds)
	}
	if _, err := c.MyAppointments(ctx); err != nil {
		t.Fatalf("refreshed token should work: %v", err)
	}

	// The old refresh token has been revoked.
	_ = store.Set(ctx, creds.WithTokens("bogus.token.value", oldRefresh))
	_, _ = c.MyAppointments(ctx)
	if creds, _ := store.Get(ctx); !creds.IsZero() {
		t.Fatalf("reusing a rotated token must clear credentials, got %+v", creds)
	}
}

func TestBusinessDirectory(t *testing.T) {
	c, store := newBackend(t, Config{})
	ctx := context.Background()

	clinics, err := c.Businesses(ctx, apiclient.BusinessFilter{Type: apiclient.TypeClinic})
	if err != nil {
		t.Fatalf("Businesses failed: %v", err)
	}
	for _, b := range clinics {
		if b.Type != apiclient.TypeClinic && b.Type != apiclient.TypeBoth {
			t.Fatalf("unexpected business in clinic filter: %+v", b)
		}
	}
	if len(clinics) != 2 {
		t.Fatalf("expected clinic and combined business, got %d", len(clinics))
	}

	found, _ := c.Businesses(ctx, apiclient.BusinessFilter{Search: "curitiba"})
	if len(found) != 1 || found[0].Type != apiclient.TypeBoth {
		t.Fatalf("unexpected search result %+v", found)
	}

	b, err := c.Business(ctx, 2)
	if err != nil || len(b.Services) != 2 {
		t.Fatalf("unexpected business %+v (err=%v)", b, err)
	}
	services, err := c.BusinessServices(ctx, 2)
	if err != nil || services[0].Name != "Consulta" {
		t.Fatalf("unexpected services %+v (err=%v)", services, err)
	}

	login(t, c, store)
	_, err = c.CreateBusiness(ctx, apiclient.BusinessInput{Name: "X"})
	var verr *validate.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected client-side validation error, got %v", err)
	}
	created, err := c.CreateBusiness(ctx, apiclient.BusinessInput{
		Name: "Gato Feliz", Type: apiclient.TypePetshop, Email: "oi@gatofeliz.com.br",
		Phone: "11912345678", Address: "Rua dos Gatos, 77",
	})
	if err != nil {
		t.Fatalf("CreateBusiness failed: %v", err)
	}
	if created.ID != 4 || created.Type != apiclient.TypePetshop {
		t.Fatalf("unexpected created business %+v", created)
	}
}

func TestUIConfigAndUpload(t *testing.T) {
	c, store := newBackend(t, Config{})
	ctx := context.Background()

	cfg, err := c.UIConfig(ctx)
	if err != nil || cfg.Colors["primary"] != "#1877F2" {
		t.Fatalf("unexpected ui config %+v (err=%v)", cfg, err)
	}

	login(t, c, store)
	cfg.Colors["primary"] = "#FF0000"
	if err := c.UpdateUIConfig(ctx, *cfg); err != nil {
		t.Fatalf("UpdateUIConfig failed: %v", err)
	}
	err = c.UpdateUIConfig(ctx, apiclient.UIConfig{Colors: apiclient.Palette{"primary": "red"}})
	var he *apiclient.HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad color, got %v", err)
	}

	url, err := c.Upload(ctx, "logo.png", strings.NewReader("\x89PNG\r\n"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !strings.Contains(url, "/api/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected upload url %q", url)
	}
	resp, err := http.Get(url)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("uploaded file not served: %v", err)
	}
	resp.Body.Close()

	cfg, _ = c.UIConfig(ctx)
	if cfg.Colors["primary"] != "#FF0000" {
		t.Fatalf("color update not stored: %+v", cfg.Colors)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := httpx.NewRateLimiter(2, time.Minute)
	c, _ := newBackend(t, Config{RateLimit: rl.Middleware()})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := c.Health(ctx); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if _, err := c.Health(ctx); !errors.Is(err, apiclient.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestProvidersAndLoginErrors(t *testing.T) {
	c, _ := newBackend(t, Config{Providers: []string{"google"}})
	ctx := context.Background()
	ps, err := c.Providers(ctx)
	if err != nil || len(ps) != 1 || ps[0].ID != "google" {
		t.Fatalf("unexpected providers %+v (err=%v)", ps, err)
	}
	_, err = c.Login(ctx, apiclient.LoginRequest{Provider: "myspace", Code: "x"})
	var he *apiclient.HTTPError
	if !errors.As(err, &he) || he.Message != "unknown provider" {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

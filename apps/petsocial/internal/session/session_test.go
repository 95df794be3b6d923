package session

import (
	"context"
	"errors"
	"testing"

	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/credstore"
	"github.com/petsocial/petsocial/libs/secevent"
)

type fakeAPI struct {
	providersErr error
	loginErr     error
	loggedOut    []string
}

func (f *fakeAPI) Providers(context.Context) ([]apiclient.Provider, error) {
	if f.providersErr != nil {
		return nil, f.providersErr
	}
	return []apiclient.Provider{{ID: "google", Name: "Google"}}, nil
}

func (f *fakeAPI) LoginURL(provider string) string { return "http://api/auth/login/" + provider }

func (f *fakeAPI) Login(_ context.Context, in apiclient.LoginRequest) (*apiclient.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &apiclient.LoginResponse{
		AccessToken:  "a1",
		RefreshToken: "r1",
		User:         apiclient.User{ID: "u1", Name: "Ana", Provider: in.Provider},
	}, nil
}

func (f *fakeAPI) Logout(_ context.Context, refreshToken string) error {
	f.loggedOut = append(f.loggedOut, refreshToken)
	return errors.New("backend down")
}

type sink struct{ types []secevent.Type }

func (s *sink) Record(_ context.Context, ev secevent.Event) error {
	s.types = append(s.types, ev.Type)
	return nil
}
func (s *sink) Close() error { return nil }

func TestLoginPersistsAndRestores(t *testing.T) {
	store := credstore.NewMemoryStore()
	api := &fakeAPI{}
	events := &sink{}
	ctx := context.Background()

	s := New(api, store, events, nil)
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if s.IsAuthenticated() || len(s.Providers()) != 1 {
		t.Fatalf("unexpected initial state user=%v providers=%v", s.User(), s.Providers())
	}

	u, err := s.Login(ctx, "google", "code")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if u.ID != "u1" || !s.IsAuthenticated() {
		t.Fatalf("unexpected user %+v", u)
	}
	if len(events.types) != 1 || events.types[0] != secevent.Login {
		t.Fatalf("unexpected events %v", events.types)
	}

	again := New(api, store, nil, nil)
	if err := again.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if got := again.User(); got == nil || got.Name != "Ana" {
		t.Fatalf("cached user not restored: %+v", got)
	}
}

func TestLogoutClearsEvenWhenBackendFails(t *testing.T) {
	store := credstore.NewMemoryStore()
	api := &fakeAPI{}
	events := &sink{}
	ctx := context.Background()
	s := New(api, store, events, nil)
	if _, err := s.Login(ctx, "google", "code"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if len(api.loggedOut) != 1 || api.loggedOut[0] != "r1" {
		t.Fatalf("refresh token not revoked: %v", api.loggedOut)
	}
	if creds, _ := store.Get(ctx); !creds.IsZero() {
		t.Fatalf("credentials left behind: %+v", creds)
	}
	if s.IsAuthenticated() {
		t.Fatal("still authenticated after logout")
	}
	if err := s.Logout(ctx); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestInitToleratesProviderFailure(t *testing.T) {
	s := New(&fakeAPI{providersErr: apiclient.ErrTimeout}, credstore.NewMemoryStore(), nil, nil)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if len(s.Providers()) != 0 {
		t.Fatalf("expected no providers, got %v", s.Providers())
	}
}

func TestReloadSeesClearedStore(t *testing.T) {
	store := credstore.NewMemoryStore()
	ctx := context.Background()
	s := New(&fakeAPI{}, store, nil, nil)
	_, _ = s.Login(ctx, "google", "code")

	_ = store.Clear(ctx)
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("user should be gone once the store is cleared")
	}
}

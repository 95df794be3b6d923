// Package session tracks who is signed in. Tokens and the cached user live
// in the credential store so a later run picks the session back up.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/credstore"
	"github.com/petsocial/petsocial/libs/runtime"
	"github.com/petsocial/petsocial/libs/secevent"
)

var ErrNotSignedIn = errors.New("not signed in")

type API interface {
	Providers(ctx context.Context) ([]apiclient.Provider, error)
	LoginURL(provider string) string
	Login(ctx context.Context, in apiclient.LoginRequest) (*apiclient.LoginResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Session struct {
	api    API
	store  credstore.Store
	events secevent.Sink
	logger *slog.Logger

	mu        sync.RWMutex
	user      *apiclient.User
	providers []apiclient.Provider
}

func New(api API, store credstore.Store, events secevent.Sink, logger *slog.Logger) *Session {
	if events == nil {
		events = secevent.Nop()
	}
	if logger == nil {
		logger = runtime.Discard()
	}
	return &Session{api: api, store: store, events: events, logger: logger}
}

// Init restores the cached user and loads the login providers. A provider
// list failure is logged and leaves the list empty.
func (s *Session) Init(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}
	providers, err := s.api.Providers(ctx)
	if err != nil {
		s.logger.Warn("load auth providers failed", "err", err)
		return nil
	}
	s.mu.Lock()
	s.providers = providers
	s.mu.Unlock()
	return nil
}

// Reload rereads the credential store. The store may have been cleared
// behind our back by a failed token refresh.
func (s *Session) Reload(ctx context.Context) error {
	creds, err := s.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	var user *apiclient.User
	if creds.AccessToken != "" || creds.RefreshToken != "" {
		if len(creds.User) > 0 {
			var u apiclient.User
			if err := json.Unmarshal(creds.User, &u); err != nil {
				s.logger.Warn("cached user unreadable", "err", err)
			} else {
				user = &u
			}
		}
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

func (s *Session) LoginURL(provider string) string { return s.api.LoginURL(provider) }

// Login trades the provider code for tokens and remembers the user.
func (s *Session) Login(ctx context.Context, provider, code string) (*apiclient.User, error) {
	resp, err := s.api.Login(ctx, apiclient.LoginRequest{Provider: provider, Code: code})
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(resp.User)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	creds := credstore.Credentials{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken, User: raw}
	if err := s.store.Set(ctx, creds); err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}

	u := resp.User
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	s.record(ctx, secevent.Login, map[string]string{"provider": provider, "user_id": u.ID})
	s.logger.Info("signed in", "provider", provider, "user_id", u.ID)
	return &u, nil
}

// Logout revokes the refresh token upstream when possible and always wipes
// local credentials.
func (s *Session) Logout(ctx context.Context) error {
	creds, err := s.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	if creds.IsZero() {
		return ErrNotSignedIn
	}
	if err := s.api.Logout(ctx, creds.RefreshToken); err != nil {
		s.logger.Warn("remote logout failed", "err", err)
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}

	s.mu.Lock()
	var userID string
	if s.user != nil {
		userID = s.user.ID
	}
	s.user = nil
	s.mu.Unlock()

	s.record(ctx, secevent.Logout, map[string]string{"user_id": userID})
	s.record(ctx, secevent.CredentialsCleared, map[string]string{"reason": "logout"})
	return nil
}

func (s *Session) User() *apiclient.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) Providers() []apiclient.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.providers)
}

func (s *Session) record(ctx context.Context, t secevent.Type, details map[string]string) {
	if err := s.events.Record(ctx, secevent.New(t, details)); err != nil {
		s.logger.Warn("security event not recorded", "event_type", string(t), "err", err)
	}
}

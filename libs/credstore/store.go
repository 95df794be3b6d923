// Package credstore keeps the signed-in user's tokens between runs. Every
// backend implements the same three-verb Store; callers receive one by
// injection and never reach for a package-level instance.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrWrongPassphrase = errors.New("credential store: wrong passphrase or corrupted data")

type Credentials struct {
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

func (c Credentials) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && len(c.User) == 0
}

// WithTokens returns a copy with the token pair replaced and the cached user kept.
func (c Credentials) WithTokens(access, refresh string) Credentials {
	c.AccessToken = access
	c.RefreshToken = refresh
	return c
}

// Store is the credential capability. Get on an empty store returns zero
// Credentials and a nil error.
type Store interface {
	Get(ctx context.Context) (Credentials, error)
	Set(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
	Close() error
}

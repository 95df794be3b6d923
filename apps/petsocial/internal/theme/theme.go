// Package theme holds the app's colors and logo. It starts from the built in
// palette and follows whatever the backend serves at /ui-config.
package theme

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/runtime"
	"github.com/petsocial/petsocial/libs/validate"
)

var (
	ErrInvalidColor = errors.New("enter a valid color in the #RRGGBB format")
	ErrInvalidLogo  = errors.New("enter a valid logo URL")
)

type API interface {
	UIConfig(ctx context.Context) (*apiclient.UIConfig, error)
	UpdateUIConfig(ctx context.Context, cfg apiclient.UIConfig) error
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

type Theme struct {
	api    API
	logger *slog.Logger

	mu      sync.RWMutex
	colors  apiclient.Palette
	logoURL string
	lastErr error
}

func New(api API, logger *slog.Logger) *Theme {
	if logger == nil {
		logger = runtime.Discard()
	}
	return &Theme{api: api, logger: logger, colors: apiclient.DefaultPalette()}
}

// Load pulls the backend configuration. When it fails the current palette
// stays and the error is kept for LastError.
func (t *Theme) Load(ctx context.Context) error {
	cfg, err := t.api.UIConfig(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastErr = err
	if err != nil {
		t.logger.Warn("ui config unavailable, using defaults", "err", err)
		return err
	}
	if len(cfg.Colors) > 0 {
		t.colors = maps.Clone(cfg.Colors)
	}
	if cfg.LogoURL != "" {
		t.logoURL = cfg.LogoURL
	}
	return nil
}

// UpdatePrimaryColor saves the whole palette with primary swapped for hex.
// Local state only changes once the backend accepted it.
func (t *Theme) UpdatePrimaryColor(ctx context.Context, hex string) error {
	hex = strings.TrimSpace(hex)
	if !validate.HexColor(hex) {
		return ErrInvalidColor
	}
	t.mu.RLock()
	colors := maps.Clone(t.colors)
	logo := t.logoURL
	t.mu.RUnlock()
	colors["primary"] = hex

	if err := t.api.UpdateUIConfig(ctx, apiclient.UIConfig{Colors: colors, LogoURL: logo}); err != nil {
		t.logger.Warn("update colors failed", "err", err)
		return err
	}
	t.mu.Lock()
	t.colors = colors
	t.mu.Unlock()
	return nil
}

func (t *Theme) UpdateLogo(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" || !validate.URL(url) {
		return ErrInvalidLogo
	}
	if err := t.api.UpdateUIConfig(ctx, apiclient.UIConfig{LogoURL: url}); err != nil {
		t.logger.Warn("update logo failed", "err", err)
		return err
	}
	t.mu.Lock()
	t.logoURL = url
	t.mu.Unlock()
	return nil
}

// UploadLogo stores the image on the backend and points the logo at it.
func (t *Theme) UploadLogo(ctx context.Context, filename string, r io.Reader) (string, error) {
	url, err := t.api.Upload(ctx, filename, r)
	if err != nil {
		return "", err
	}
	if err := t.UpdateLogo(ctx, url); err != nil {
		return "", err
	}
	return url, nil
}

func (t *Theme) Colors() apiclient.Palette {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.colors)
}

func (t *Theme) Color(name string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.colors[name]
}

func (t *Theme) LogoURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.logoURL
}

func (t *Theme) LastError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}

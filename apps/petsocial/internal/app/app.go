// Package app assembles the client: API client, credential store, security
// event sinks, session and theme. Everything is built here and handed down;
// nothing below reaches for globals.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/petsocial/petsocial/apps/petsocial/internal/appointments"
	"github.com/petsocial/petsocial/apps/petsocial/internal/booking"
	"github.com/petsocial/petsocial/apps/petsocial/internal/directory"
	"github.com/petsocial/petsocial/apps/petsocial/internal/session"
	"github.com/petsocial/petsocial/apps/petsocial/internal/theme"
	"github.com/petsocial/petsocial/libs/apiclient"
	"github.com/petsocial/petsocial/libs/config"
	"github.com/petsocial/petsocial/libs/credstore"
	"github.com/petsocial/petsocial/libs/kafkax"
	otelx "github.com/petsocial/petsocial/libs/otel"
	"github.com/petsocial/petsocial/libs/runtime"
	"github.com/petsocial/petsocial/libs/secevent"
)

const serviceName = "petsocial"

type Config struct {
	API apiclient.Config

	CredstoreURL string
	Passphrase   string
	Profile      string

	KafkaBrokers string
	KafkaTopic   string

	Otel otelx.Config

	LogLevel  string
	LogFormat string
}

func ConfigFromEnv() (Config, error) {
	api, err := apiclient.ConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	return Config{
		API:          api,
		CredstoreURL: config.String("PETSOCIAL_CREDSTORE_URL", credstore.DefaultURL()),
		Passphrase:   config.String("PETSOCIAL_STORE_PASSPHRASE", ""),
		Profile:      config.String("PETSOCIAL_PROFILE", "default"),
		KafkaBrokers: config.String("PETSOCIAL_KAFKA_BROKERS", ""),
		KafkaTopic:   config.String("PETSOCIAL_KAFKA_TOPIC", "client.security.events.v1"),
		Otel:         otelx.ConfigFromEnv(serviceName),
		LogLevel:     config.String("LOG_LEVEL", "info"),
		LogFormat:    config.String("LOG_FORMAT", "text"),
	}, nil
}

type Option func(*options)

type options struct {
	logger    *slog.Logger
	store     credstore.Store
	sink      secevent.Sink
	clientOpt []apiclient.Option
}

// WithLogger replaces the logger built from Config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStore skips opening Config.CredstoreURL.
func WithStore(s credstore.Store) Option {
	return func(o *options) { o.store = s }
}

// WithSink adds a security event sink next to the log sink.
func WithSink(s secevent.Sink) Option {
	return func(o *options) { o.sink = s }
}

func WithClientOptions(opts ...apiclient.Option) Option {
	return func(o *options) { o.clientOpt = append(o.clientOpt, opts...) }
}

type App struct {
	Config    Config
	Logger    *slog.Logger
	Client    *apiclient.Client
	Store     credstore.Store
	Events    secevent.Sink
	Session   *session.Session
	Theme     *theme.Theme
	Directory *directory.Directory

	closers []func(context.Context) error
}

// New wires the app. On error everything opened so far is closed again.
func New(ctx context.Context, cfg Config, opts ...Option) (_ *App, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: o.logger}
	if a.Logger == nil {
		a.Logger = runtime.NewLogger(serviceName, cfg.LogLevel, cfg.LogFormat)
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	shutdown, err := otelx.Setup(ctx, cfg.Otel)
	if err != nil {
		return nil, fmt.Errorf("otel setup: %w", err)
	}
	a.onClose(shutdown)

	a.Events, err = a.openEvents(ctx, o.sink)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return a.Events.Close() })

	// An injected store belongs to the caller and is left open.
	a.Store = o.store
	if a.Store == nil {
		a.Store, err = credstore.Open(ctx, cfg.CredstoreURL, credstore.Options{Passphrase: cfg.Passphrase, Profile: cfg.Profile})
		if err != nil {
			return nil, fmt.Errorf("open credential store: %w", err)
		}
		a.onClose(func(context.Context) error { return a.Store.Close() })
	}

	clientOpts := []apiclient.Option{
		apiclient.WithStore(a.Store),
		apiclient.WithLogger(a.Logger),
		apiclient.WithEvents(a.Events),
	}
	if cfg.Otel.Enabled {
		clientOpts = append(clientOpts, apiclient.WithTracing())
	}
	a.Client = apiclient.New(cfg.API, append(clientOpts, o.clientOpt...)...)

	a.Session = session.New(a.Client, a.Store, a.Events, a.Logger)
	a.Theme = theme.New(a.Client, a.Logger)
	a.Directory = directory.New(a.Client, a.Logger)
	return a, nil
}

func (a *App) openEvents(ctx context.Context, extra secevent.Sink) (secevent.Sink, error) {
	sinks := []secevent.Sink{secevent.NewLogSink(a.Logger), extra}
	if a.Config.KafkaBrokers != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := kafkax.Ping(pingCtx, a.Config.KafkaBrokers)
		cancel()
		if err != nil {
			a.Logger.Warn("kafka unreachable, security events stay local", "brokers", a.Config.KafkaBrokers, "err", err)
		} else {
			ks, err := secevent.NewKafkaSink(a.Config.KafkaBrokers, a.Config.KafkaTopic)
			if err != nil {
				return nil, fmt.Errorf("kafka sink: %w", err)
			}
			sinks = append(sinks, ks)
		}
	}
	return secevent.Multi(sinks...), nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Start restores the session and loads the theme. A theme failure only
// leaves the default palette in place.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Init(ctx); err != nil {
		return err
	}
	_ = a.Theme.Load(ctx)
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) Booking(alert booking.Alerter, nav booking.Navigator, businessID int64, service apiclient.Service) *booking.Flow {
	return booking.New(a.Client, alert, nav, businessID, service, booking.WithLogger(a.Logger))
}

func (a *App) Appointments(dialog appointments.Dialog) *appointments.Screen {
	return appointments.New(a.Client, dialog, a.Logger)
}

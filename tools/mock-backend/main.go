package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/petsocial/petsocial/libs/config"
	"github.com/petsocial/petsocial/libs/httpx"
	"github.com/petsocial/petsocial/libs/mockapi"
	otelx "github.com/petsocial/petsocial/libs/otel"
	"github.com/petsocial/petsocial/libs/runtime"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fatal(err.Error())
	}

	var (
		addr      = flag.String("addr", ":"+config.String("PORT", "5000"), "listen address")
		basePath  = flag.String("base-path", config.String("MOCK_BASE_PATH", "/api"), "path prefix of every route")
		secret    = flag.String("secret", config.String("MOCK_JWT_SECRET", "petsocial-dev-secret"), "HS256 signing secret")
		providers = flag.String("providers", config.String("MOCK_PROVIDERS", "google,facebook"), "comma separated login providers")
		workStart = flag.String("workday-start", config.String("MOCK_WORKDAY_START", "09:00"), "first bookable time")
		workEnd   = flag.String("workday-end", config.String("MOCK_WORKDAY_END", "17:00"), "end of the bookable day")
		rateLimit = flag.Int("rate-limit", mustInt("MOCK_RATE_LIMIT", 120), "requests per client per minute, 0 disables")
		redisAddr = flag.String("redis-addr", config.String("REDIS_ADDR", ""), "share the rate limit through redis when set")
		accessTTL = flag.Duration("access-ttl", mustDuration("MOCK_ACCESS_TTL", time.Hour), "access token lifetime")
		slotStep  = flag.Duration("slot-step", mustDuration("MOCK_SLOT_STEP", 30*time.Minute), "distance between offered slots")
		logLevel  = flag.String("log-level", config.String("LOG_LEVEL", "info"), "debug, info, warn or error")
		logFormat = flag.String("log-format", config.String("LOG_FORMAT", "json"), "json or text")
	)
	flag.Parse()

	logger := runtime.NewLogger("mock-backend", *logLevel, *logFormat)

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelCfg := otelx.ConfigFromEnv("mock-backend")
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var limiter httpx.Middleware
	switch {
	case *rateLimit <= 0:
	case strings.TrimSpace(*redisAddr) != "":
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer rdb.Close()
		limiter = httpx.NewRedisRateLimiter(rdb, *rateLimit, time.Minute, "petsocial:mock:rl").Middleware(logger, true)
		logger.Info("rate limit shared through redis", "addr", *redisAddr, "limit", *rateLimit)
	default:
		limiter = httpx.NewRateLimiter(*rateLimit, time.Minute).Middleware()
	}

	backend := mockapi.New(mockapi.Config{
		Secret:    *secret,
		BasePath:  *basePath,
		AccessTTL: *accessTTL,
		Providers: config.ParseList(*providers),
		Workday:   mockapi.Workday{Start: *workStart, End: *workEnd, Step: *slotStep},
		Logger:    logger,
		RateLimit: limiter,
		Tracing:   otelCfg.Enabled,
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("mock backend starting", "addr", srv.Addr, "base_path", *basePath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("mock backend stopped")
}

func mustInt(key string, fallback int) int {
	n, err := config.Int(key, fallback)
	if err != nil {
		fatal(err.Error())
	}
	return n
}

func mustDuration(key string, fallback time.Duration) time.Duration {
	d, err := config.Duration(key, fallback)
	if err != nil {
		fatal(err.Error())
	}
	return d
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

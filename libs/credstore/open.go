package credstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/petsocial/petsocial/libs/db"
	"github.com/redis/go-redis/v9"
)

type Options struct {
	// Passphrase seals file:// stores.
	Passphrase string
	// Profile separates users sharing a redis:// or postgres:// backend.
	Profile string
}

// DefaultURL is file://$HOME/.petsocial/credentials.
func DefaultURL() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return "file://" + filepath.ToSlash(filepath.Join(home, ".petsocial", "credentials"))
}

// Open picks a backend from the URL scheme: memory://, file:///path,
// redis://host:port/db, postgres://...
func Open(ctx context.Context, rawURL string, opts Options) (Store, error) {
	if strings.TrimSpace(rawURL) == "" {
		rawURL = DefaultURL()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse credential store url: %w", err)
	}

	switch u.Scheme {
	case "memory", "mem":
		return NewMemoryStore(), nil
	case "file":
		path := u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = filepath.Join(u.Host, u.Path)
		}
		return NewFileStore(filepath.FromSlash(path), opts.Passphrase)
	case "redis", "rediss":
		// go-redis rejects query options it does not know, so prefix is peeled off first.
		prefix := u.Query().Get("prefix")
		stripped := *u
		q := stripped.Query()
		q.Del("prefix")
		stripped.RawQuery = q.Encode()
		ropts, err := redis.ParseURL(stripped.String())
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(ropts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisStore(rdb, prefix, opts.Profile), nil
	case "postgres", "postgresql":
		pool, err := db.Open(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		store, err := NewPostgresStore(ctx, pool, opts.Profile)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported credential store scheme %q", u.Scheme)
	}
}

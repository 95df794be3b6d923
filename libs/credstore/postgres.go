package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/petsocial/petsocial/libs/db"
)

const credentialsSchema = `
CREATE TABLE IF NOT EXISTS client_credentials (
	profile       TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL DEFAULT '',
	refresh_token TEXT NOT NULL DEFAULT '',
	user_json     JSONB,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresStore struct {
	pool    *db.Pool
	profile string
}

// NewPostgresStore creates the credentials table when missing.
func NewPostgresStore(ctx context.Context, pool *db.Pool, profile string) (*PostgresStore, error) {
	if profile == "" {
		profile = "default"
	}
	if _, err := pool.Exec(ctx, credentialsSchema); err != nil {
		return nil, fmt.Errorf("ensure credentials table: %w", err)
	}
	return &PostgresStore{pool: pool, profile: profile}, nil
}

func (s *PostgresStore) Get(ctx context.Context) (Credentials, error) {
	var creds Credentials
	var user []byte
	err := s.pool.QueryRow(ctx, `
		SELECT access_token, refresh_token, user_json
		FROM client_credentials
		WHERE profile = $1
	`, s.profile).Scan(&creds.AccessToken, &creds.RefreshToken, &user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	creds.User = user
	return creds, nil
}

func (s *PostgresStore) Set(ctx context.Context, creds Credentials) error {
	var user any
	if len(creds.User) > 0 {
		user = []byte(creds.User)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO client_credentials (profile, access_token, refresh_token, user_json, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (profile) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    user_json = EXCLUDED.user_json,
		    updated_at = now()
	`, s.profile, creds.AccessToken, creds.RefreshToken, user)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM client_credentials WHERE profile = $1`, s.profile); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

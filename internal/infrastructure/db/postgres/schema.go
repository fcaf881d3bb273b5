package postgres

import (
	"context"
	"database/sql"
)

// schemaStatements are idempotent; EnsureSchema runs them on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  verified BOOLEAN NOT NULL DEFAULT FALSE,
  verification_token TEXT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  contact_phone TEXT NOT NULL DEFAULT '',

  resume_files JSONB NOT NULL DEFAULT '[]'::jsonb,
  portfolio_files JSONB NOT NULL DEFAULT '[]'::jsonb,
  project_files JSONB NOT NULL DEFAULT '[]'::jsonb,
  portfolio_links JSONB NOT NULL DEFAULT '[]'::jsonb,

  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

  CONSTRAINT users_email_key UNIQUE (email),
  CONSTRAINT users_verification_token_key UNIQUE (verification_token)
);`,
	`CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at DESC);`,

	`CREATE TABLE IF NOT EXISTS contact_messages (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL,
  handled BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,

	`CREATE TABLE IF NOT EXISTS ads (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  cta TEXT NOT NULL,
  image_url TEXT NOT NULL,
  tagline TEXT NOT NULL DEFAULT '',
  active BOOLEAN NOT NULL DEFAULT TRUE,
  metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	`CREATE INDEX IF NOT EXISTS ads_active_created_idx ON ads (active, created_at DESC);`,
}

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, s := range schemaStatements {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

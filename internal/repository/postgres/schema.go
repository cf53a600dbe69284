package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	constraintUsernameUnique = "profiles_username_key"
	constraintEmailUnique    = "profiles_email_key"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id uuid PRIMARY KEY,
    username varchar(20) NOT NULL,
    email text NOT NULL,
    password_hash text NOT NULL,
    email_verified boolean NOT NULL DEFAULT false,
    bio varchar(160),
    avatar_url text,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT profiles_username_key UNIQUE (username),
    CONSTRAINT profiles_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS tweets (
    id uuid PRIMARY KEY,
    profile_id uuid NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    content varchar(140) NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS tweets_created_at_idx ON tweets (created_at DESC);
CREATE INDEX IF NOT EXISTS tweets_profile_id_idx ON tweets (profile_id, created_at DESC);

CREATE TABLE IF NOT EXISTS likes (
    tweet_id uuid NOT NULL REFERENCES tweets(id) ON DELETE CASCADE,
    profile_id uuid NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    PRIMARY KEY (tweet_id, profile_id)
);
`

// EnsureSchema creates the tables when they do not exist yet. It is safe
// to run on every start.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

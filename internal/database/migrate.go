package database

import (
	"context"
	"fmt"
)

// schema is applied on startup. Statements are idempotent; the unique
// constraints here are the authority for the code-hash and membership races.
const schema = `
CREATE TABLE IF NOT EXISTS agencies (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name       TEXT NOT NULL,
	slug       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email      TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS login_tokens (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email       TEXT NOT NULL,
	prefix      TEXT NOT NULL,
	token_hash  TEXT NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL,
	consumed_at TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS login_tokens_prefix_idx ON login_tokens (prefix);

CREATE TABLE IF NOT EXISTS projects (
	id                     UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	agency_id              UUID NOT NULL REFERENCES agencies (id),
	name                   TEXT NOT NULL,
	status                 TEXT NOT NULL DEFAULT 'active',
	client_code            TEXT,
	client_code_hash       TEXT UNIQUE,
	client_code_active     BOOLEAN NOT NULL DEFAULT false,
	client_code_created_at TIMESTAMPTZ,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS client_codes (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id      UUID NOT NULL REFERENCES projects (id),
	label           TEXT NOT NULL DEFAULT '',
	client_name     TEXT,
	client_email    TEXT,
	notes           TEXT,
	code_hash       TEXT NOT NULL,
	is_active       BOOLEAN NOT NULL DEFAULT true,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_rotated_at TIMESTAMPTZ,
	deleted_at      TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS client_codes_hash_live_idx
	ON client_codes (code_hash) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS client_codes_project_idx ON client_codes (project_id);

CREATE TABLE IF NOT EXISTS project_members (
	project_id UUID NOT NULL REFERENCES projects (id),
	user_id    UUID NOT NULL REFERENCES profiles (id),
	role       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (project_id, user_id)
);

CREATE TABLE IF NOT EXISTS milestones (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id UUID NOT NULL REFERENCES projects (id),
	key        TEXT NOT NULL,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'not_started',
	sort       INT NOT NULL DEFAULT 0,
	UNIQUE (project_id, key)
);

CREATE TABLE IF NOT EXISTS onboarding_steps (
	project_id UUID NOT NULL REFERENCES projects (id),
	step       INT NOT NULL,
	payload    JSONB NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (project_id, step)
);

CREATE TABLE IF NOT EXISTS tickets (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id UUID NOT NULL REFERENCES projects (id),
	author_id  UUID NOT NULL REFERENCES profiles (id),
	subject    TEXT NOT NULL,
	body       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'open',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ticket_replies (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	ticket_id  UUID NOT NULL REFERENCES tickets (id),
	author_id  UUID NOT NULL REFERENCES profiles (id),
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS files (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id   UUID NOT NULL REFERENCES projects (id),
	uploader_id  UUID NOT NULL REFERENCES profiles (id),
	name         TEXT NOT NULL,
	s3_key       TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
	size         BIGINT NOT NULL DEFAULT 0,
	kind         TEXT NOT NULL DEFAULT 'general',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS project_website_urls (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id UUID NOT NULL REFERENCES projects (id),
	url        TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	created_by UUID REFERENCES profiles (id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_log (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id UUID,
	actor      TEXT NOT NULL,
	action     TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_log_project_idx ON audit_log (project_id, created_at);
`

// Migrate applies the embedded schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
